// Command paymentsvc is a local stand-in for the real payment service:
// the four lifecycle endpoints plus artifact serving, with payments
// that auto-complete after a short delay so the client's polling and
// resumption paths can be exercised end to end.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cvpro/kit/observability"
)

type transaction struct {
	ID          string
	Reference   string
	Phone       string
	Status      string
	PDFURL      string
	CompletesAt time.Time
}

type store struct {
	mu    sync.Mutex
	byID  map[string]*transaction
	byRef map[string]*transaction
}

func newStore() *store {
	return &store{byID: make(map[string]*transaction), byRef: make(map[string]*transaction)}
}

func (s *store) create(phone string, completeAfter time.Duration) *transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &transaction{
		ID:          "TX-" + uuid.NewString(),
		Reference:   "SVC-" + uuid.NewString()[:8],
		Phone:       phone,
		Status:      "pending",
		CompletesAt: time.Now().Add(completeAfter),
	}
	s.byID[tx.ID] = tx
	s.byRef[tx.Reference] = tx
	return tx
}

// settle lazily flips pending transactions once their delay elapsed,
// so no background ticker is needed.
func (s *store) settle(tx *transaction) {
	if tx.Status == "pending" && time.Now().After(tx.CompletesAt) {
		tx.Status = "completed"
		tx.PDFURL = "/files/" + tx.ID + ".pdf"
	}
}

func (s *store) get(id string) (*transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.byID[id]
	if ok {
		s.settle(tx)
	}
	return tx, ok
}

func (s *store) getByRef(ref string) (*transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.byRef[ref]
	if ok {
		s.settle(tx)
	}
	return tx, ok
}

func main() {
	addr := flag.String("addr", ":3001", "listen address")
	completeAfter := flag.Duration("complete-after", 12*time.Second, "delay before a pending payment completes")
	useGateway := flag.Bool("gateway", false, "answer initiations with a hosted payment page redirect")
	flag.Parse()

	logger := observability.NewLogger()
	txs := newStore()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/api/initiate-payment", func(c *gin.Context) {
		var req struct {
			PhoneNumber string `json:"phoneNumber" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "phoneNumber is required"})
			return
		}
		tx := txs.create(req.PhoneNumber, *completeAfter)
		logger.Info("payment initiated", "transaction_id", tx.ID, "phone", req.PhoneNumber)
		resp := gin.H{"transactionId": tx.ID}
		if *useGateway {
			resp["useGateway"] = true
			resp["paymentUrl"] = fmt.Sprintf("http://localhost%s/pay/%s", *addr, tx.ID)
		}
		c.JSON(http.StatusOK, resp)
	})

	r.GET("/api/payment-status/:id", func(c *gin.Context) {
		tx, ok := txs.get(c.Param("id"))
		if !ok {
			// Unknown ids report pending: creation may still be in flight.
			c.JSON(http.StatusOK, gin.H{"status": "pending"})
			return
		}
		resp := gin.H{"status": tx.Status}
		if tx.PDFURL != "" {
			resp["pdfUrl"] = tx.PDFURL
		}
		c.JSON(http.StatusOK, resp)
	})

	r.GET("/api/payment/verify/:reference", func(c *gin.Context) {
		tx, ok := txs.getByRef(c.Param("reference"))
		if !ok {
			c.JSON(http.StatusOK, gin.H{"success": false, "status": "pending"})
			return
		}
		switch tx.Status {
		case "completed":
			c.JSON(http.StatusOK, gin.H{"success": true, "status": "successful", "pdfUrl": tx.PDFURL})
		case "failed":
			c.JSON(http.StatusOK, gin.H{"success": false, "status": "failed"})
		default:
			c.JSON(http.StatusOK, gin.H{"success": false, "status": "pending"})
		}
	})

	r.POST("/api/payment/generate-cv", func(c *gin.Context) {
		var req struct {
			Reference string `json:"reference" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "pdfUrl": "/files/" + req.Reference + ".pdf"})
	})

	// The hosted payment page: visiting it completes the payment, the
	// way a user finishing mobile money approval would.
	r.GET("/pay/:id", func(c *gin.Context) {
		tx, ok := txs.get(c.Param("id"))
		if !ok {
			c.String(http.StatusNotFound, "unknown transaction")
			return
		}
		txs.mu.Lock()
		tx.Status = "completed"
		tx.PDFURL = "/files/" + tx.ID + ".pdf"
		txs.mu.Unlock()
		c.String(http.StatusOK, "Payment %s completed. You can close this page and return to the terminal.", tx.ID)
	})

	r.GET("/files/:name", func(c *gin.Context) {
		c.Header("Content-Type", "application/pdf")
		c.String(http.StatusOK, "%%PDF-1.4 stub artifact %s", c.Param("name"))
	})

	logger.Info("paymentsvc listening", "addr", *addr, "gateway", *useGateway)
	if err := r.Run(*addr); err != nil {
		logger.Error("server error", "error", err.Error())
	}
}
