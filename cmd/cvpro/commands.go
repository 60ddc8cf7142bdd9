package main

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"cvpro/internal/api"
	"cvpro/internal/lifecycle"
	"cvpro/internal/resume"
	"cvpro/internal/session"
)

func newRootCmd() *cobra.Command {
	var (
		cfgPath    string
		fakeWidget bool
		yes        bool
	)

	root := &cobra.Command{
		Use:           "cvpro",
		Short:         "Pay for and download your professionally generated CV",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")
	root.PersistentFlags().BoolVar(&fakeWidget, "fake-widget", false, "use the scripted payment widget (dev only)")
	root.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompts")
	_ = root.PersistentFlags().MarkHidden("fake-widget")

	root.AddCommand(
		newPayCmd(&cfgPath, &fakeWidget, &yes),
		newResumeCmd(&cfgPath, &fakeWidget),
		newCancelCmd(&cfgPath, &fakeWidget, &yes),
		newStatusCmd(&cfgPath, &fakeWidget),
		newHistoryCmd(&cfgPath, &fakeWidget),
		newDoctorCmd(&cfgPath, &fakeWidget),
	)
	return root
}

func newPayCmd(cfgPath *string, fakeWidget, yes *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "pay <cv.json>",
		Short: "Start a payment for the CV described in the given file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*cfgPath, *fakeWidget)
			if err != nil {
				return err
			}
			defer a.close()
			ctx := cmd.Context()

			snap, err := resume.Load(args[0])
			if err != nil {
				return err
			}

			if rec, ok, _ := a.register.Get(ctx); ok {
				if *yes {
					fmt.Fprintf(cmd.OutOrStdout(), "A payment is already pending (reference %s). Run `cvpro resume` or `cvpro cancel` first.\n", rec.Reference)
					return errors.New("pending payment exists")
				}
				prompt := promptui.Prompt{
					Label:     fmt.Sprintf("Payment %s is still pending. Cancel it and start over", rec.Reference),
					IsConfirm: true,
				}
				if _, err := prompt.Run(); err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Keeping the pending payment. Run `cvpro resume` to continue it.")
					return nil
				}
				if err := a.engine.Cancel(ctx); err != nil {
					return err
				}
			}

			if !*yes {
				prompt := promptui.Prompt{
					Label:     fmt.Sprintf("Pay K%d via %s for %s", a.cfg.Gateway.Amount, a.cfg.Gateway.PaymentMethod, snap.PersonalInfo.FullName),
					IsConfirm: true,
				}
				if _, err := prompt.Run(); err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Payment not started.")
					return nil
				}
			}

			s, err := a.engine.Initiate(ctx, snap)
			if err != nil {
				if lifecycle.IsValidation(err) {
					return fmt.Errorf("your CV details are incomplete or invalid: %w", err)
				}
				return err
			}
			if s.State == session.StateAwaitingGatewayRedirect {
				fmt.Fprintln(cmd.OutOrStdout(), "Finish the payment in your browser, then run `cvpro resume`.")
				return nil
			}
			return awaitOutcome(cmd, a)
		},
	}
}

func newResumeCmd(cfgPath *string, fakeWidget *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Pick up a payment started in a previous run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*cfgPath, *fakeWidget)
			if err != nil {
				return err
			}
			defer a.close()

			s, err := a.engine.Resume(cmd.Context())
			if err != nil {
				return err
			}
			if s == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to resume.")
				return nil
			}
			if s.State.Terminal() {
				return reportOutcome(cmd, a, s, nil)
			}
			return awaitOutcome(cmd, a)
		},
	}
}

func newCancelCmd(cfgPath *string, fakeWidget, yes *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the pending payment attempt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*cfgPath, *fakeWidget)
			if err != nil {
				return err
			}
			defer a.close()
			ctx := cmd.Context()

			rec, ok, err := a.register.Get(ctx)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending payment to cancel.")
				return nil
			}
			if !*yes {
				prompt := promptui.Prompt{
					Label:     fmt.Sprintf("Cancel pending payment %s", rec.Reference),
					IsConfirm: true,
				}
				if _, err := prompt.Run(); err != nil {
					return nil
				}
			}
			return a.engine.Cancel(ctx)
		},
	}
}

func newStatusCmd(cfgPath *string, fakeWidget *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the pending payment and its current server status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*cfgPath, *fakeWidget)
			if err != nil {
				return err
			}
			defer a.close()
			ctx := cmd.Context()

			rec, ok, err := a.register.Get(ctx)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending payment.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reference:      %s\n", rec.Reference)
			fmt.Fprintf(cmd.OutOrStdout(), "Transaction:    %s\n", rec.TransactionID)
			fmt.Fprintf(cmd.OutOrStdout(), "Phone:          %s\n", rec.Phone)
			fmt.Fprintf(cmd.OutOrStdout(), "Started:        %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05 MST"))

			st, err := a.apiClient.PaymentStatus(ctx, rec.TransactionID)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Server status:  unreachable")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Server status:  %s\n", st.Status)
			return nil
		},
	}
}

func newHistoryCmd(cfgPath *string, fakeWidget *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List past purchases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*cfgPath, *fakeWidget)
			if err != nil {
				return err
			}
			defer a.close()

			entries := a.projector.List(cmd.Context())
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No purchases yet.")
				return nil
			}
			for _, e := range entries {
				line := fmt.Sprintf("%s  %-22s  %-10s", e.StartedAt.Format("2006-01-02 15:04"), e.Reference, e.Outcome)
				if e.ArtifactPath != "" {
					line += "  " + e.ArtifactPath
				} else if e.Reason != "" {
					line += "  " + e.Reason
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}

func newDoctorCmd(cfgPath *string, fakeWidget *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check connectivity to the payment service and local state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*cfgPath, *fakeWidget)
			if err != nil {
				return err
			}
			defer a.close()

			res := a.health.Check(cmd.Context())
			for name, status := range res.Checks {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", name, status)
			}
			if !res.OK {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}

// awaitOutcome blocks on the engine until the session settles, then
// prints the outcome. The event subscribers already narrate progress.
func awaitOutcome(cmd *cobra.Command, a *app) error {
	s, err := a.engine.Await(cmd.Context())
	return reportOutcome(cmd, a, s, err)
}

func reportOutcome(cmd *cobra.Command, a *app, s *session.Session, err error) error {
	if s == nil {
		return err
	}
	switch s.State {
	case session.StateConfirmed:
		fmt.Fprintf(cmd.OutOrStdout(), "Done. Reference %s.\n", s.Reference)
		return nil
	case session.StateCancelled:
		return nil
	default:
		if err == nil {
			err = errors.New("payment did not complete")
		}
		if api.IsNetwork(err) {
			fmt.Fprintln(cmd.OutOrStdout(), "Could not reach the payment service. Your pending payment is kept; run `cvpro resume` later.")
		}
		return err
	}
}
