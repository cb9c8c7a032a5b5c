package mockserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vitwit/x402gen/generation"
	"github.com/vitwit/x402gen/payment"
	"github.com/vitwit/x402gen/types"
	"go.uber.org/zap"
)

type task struct {
	id      string
	prompt  string
	model   string
	txHash  string
	fail    bool
	polls   int
	created time.Time
}

func (s *Server) requirements(c *gin.Context) []types.PaymentRequirements {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	resource := scheme + "://" + c.Request.Host + c.Request.URL.Path

	accepts := make([]types.PaymentRequirements, 0, len(s.cfg.Networks))
	for _, n := range s.cfg.Networks {
		req := types.PaymentRequirements{
			Scheme:            string(types.SchemeExact),
			Network:           n.String(),
			MaxAmountRequired: s.cfg.Price,
			Resource:          resource,
			Description:       "AI media generation",
			MimeType:          "application/json",
			MaxTimeoutSeconds: 300,
			Asset:             n.USDC(),
		}
		if n.IsSolana() {
			req.PayTo = s.cfg.SolanaPayTo
			req.Extra = map[string]interface{}{"feePayer": s.cfg.SolanaFeePayer}
		} else {
			req.PayTo = s.cfg.EVMPayTo
			req.Extra = map[string]interface{}{"name": s.cfg.TokenName, "version": s.cfg.TokenVersion}
		}
		accepts = append(accepts, req)
	}
	return accepts
}

func (s *Server) paymentRequired(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusPaymentRequired, types.X402Response{
		X402Version: int(types.X402Version1),
		Accepts:     s.requirements(c),
		Error:       reason,
	})
}

func (s *Server) createTask(c *gin.Context) {
	var body generation.CreatePayload
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(body.Prompt) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	header := c.GetHeader(types.HeaderPayment)
	if header == "" {
		s.paymentRequired(c, types.HeaderPayment+" header is required")
		return
	}

	payload, err := payment.DecodePaymentHeader(header)
	if err != nil {
		s.paymentRequired(c, err.Error())
		return
	}
	req := s.matching(c, payload)
	if req == nil {
		s.paymentRequired(c, fmt.Sprintf("network %s is not accepted", payload.Network))
		return
	}

	result, err := s.verifier.Verify(c.Request.Context(), payload, req)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !result.IsValid {
		s.log.Warn("payment rejected", zap.String("network", payload.Network), zap.String("reason", result.InvalidReason))
		s.paymentRequired(c, result.InvalidReason)
		return
	}

	settled, err := s.settler.Settle(c.Request.Context(), payload, result.Payer)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	receipt, err := payment.EncodePaymentResponse(*settled)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	t := &task{
		id:      uuid.NewString(),
		prompt:  body.Prompt,
		model:   body.VideoModel,
		txHash:  settled.Transaction,
		fail:    strings.Contains(strings.ToLower(body.Prompt), strings.ToLower(s.cfg.FailKeyword)),
		created: time.Now(),
	}
	s.mu.Lock()
	s.tasks[t.id] = t
	s.mu.Unlock()

	s.log.Info("task accepted",
		zap.String("taskId", t.id),
		zap.String("model", t.model),
		zap.String("payer", result.Payer),
		zap.String("txHash", t.txHash),
	)

	c.Header(types.HeaderPaymentResponse, receipt)
	c.JSON(http.StatusAccepted, gin.H{"taskId": t.id, "txHash": t.txHash})
}

func (s *Server) matching(c *gin.Context, payload *types.PaymentPayload) *types.PaymentRequirements {
	for _, req := range s.requirements(c) {
		if req.Network == payload.Network && req.Scheme == payload.Scheme {
			r := req
			return &r
		}
	}
	return nil
}

func (s *Server) taskStatus(c *gin.Context) {
	s.mu.Lock()
	t, ok := s.tasks[c.Param("id")]
	if !ok {
		s.mu.Unlock()
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	t.polls++
	polls := t.polls
	s.mu.Unlock()

	resp := gin.H{"txHash": t.txHash}
	switch {
	case t.fail && (polls >= 2 || polls >= s.cfg.PollsToComplete):
		resp["status"] = generation.StateFailed
		resp["error"] = "content policy violation: prompt rejected"
	case polls >= s.cfg.PollsToComplete:
		base := "http://" + c.Request.Host + "/media/" + t.id
		resp["status"] = generation.StateCompleted
		resp["result"] = gin.H{"generation": gin.H{
			"video": base + ".mp4",
			"image": base + ".jpg",
			"gif":   base + ".gif",
		}}
	case polls == 1:
		resp["status"] = generation.StateQueued
	default:
		resp["status"] = generation.StateRunning
		resp["metadata"] = gin.H{"percent": polls * 100 / s.cfg.PollsToComplete}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) sharePage(c *gin.Context) {
	s.mu.Lock()
	t, ok := s.tasks[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"taskId": t.id, "prompt": t.prompt, "model": t.model, "createdAt": t.created})
}
