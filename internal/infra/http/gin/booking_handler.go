package ginserver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"locadz/internal/app/commands"
	"locadz/internal/app/dto"
	bookingapp "locadz/internal/app/handlers/booking"
	paymentsapp "locadz/internal/app/handlers/payments"
	"locadz/internal/app/queries"
)

const idempotencyHeader = "Idempotency-Key"

const defaultMaxProofBytes = 10 << 20

type BookingHTTP interface {
	Create(c *gin.Context)
	SubmitProof(c *gin.Context)
	Proofs(c *gin.Context)
}

type BookingHandler struct {
	Commands      commands.Bus
	Queries       queries.Bus
	MaxProofBytes int64
	Logger        *slog.Logger
}

type createBookingRequest struct {
	ListingID         string `json:"listing_id" binding:"required"`
	CheckIn           string `json:"check_in" binding:"required"`
	CheckOut          string `json:"check_out" binding:"required"`
	Guests            int    `json:"guests"`
	TravelerBirthdate string `json:"traveler_birthdate"`
	PaymentMethod     string `json:"payment_method" binding:"required"`
	PaymentRef        string `json:"payment_ref"`
}

func (h BookingHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, err := parseDay(req.CheckIn)
	if err != nil {
		badRequest(c, fmt.Errorf("check_in: %w", err))
		return
	}
	checkOut, err := parseDay(req.CheckOut)
	if err != nil {
		badRequest(c, fmt.Errorf("check_out: %w", err))
		return
	}
	var birthdate time.Time
	if strings.TrimSpace(req.TravelerBirthdate) != "" {
		if birthdate, err = parseDay(req.TravelerBirthdate); err != nil {
			badRequest(c, fmt.Errorf("traveler_birthdate: %w", err))
			return
		}
	}
	guests := req.Guests
	if guests == 0 {
		guests = 1
	}
	cmd := bookingapp.RequestBookingCommand{
		CommandID:         uuid.NewString(),
		Actor:             actor,
		ListingID:         strings.TrimSpace(req.ListingID),
		CheckIn:           checkIn,
		CheckOut:          checkOut,
		Guests:            guests,
		TravelerBirthdate: birthdate,
		PaymentMethod:     strings.ToUpper(strings.TrimSpace(req.PaymentMethod)),
		PaymentRef:        req.PaymentRef,
		IdempotencyKeyV:   c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// SubmitProof accepts a multipart form with the evidence in "file" and
// optional "amount" and "method" fields.
func (h BookingHandler) SubmitProof(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	limit := h.MaxProofBytes
	if limit <= 0 {
		limit = defaultMaxProofBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "evidence file too large"})
			return
		}
		badRequest(c, fmt.Errorf("file: %w", err))
		return
	}
	if header.Size > limit {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "evidence file too large"})
		return
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer file.Close()
	content, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		badRequest(c, err)
		return
	}
	if int64(len(content)) > limit {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "evidence file too large"})
		return
	}

	var amount int64
	if raw := strings.TrimSpace(c.PostForm("amount")); raw != "" {
		if _, err := fmt.Sscan(raw, &amount); err != nil || amount < 0 {
			badRequest(c, errors.New("amount must be a non-negative integer"))
			return
		}
	}
	cmd := paymentsapp.SubmitPaymentProofCommand{
		CommandID:       uuid.NewString(),
		Actor:           actor,
		BookingID:       strings.TrimSpace(c.Param("id")),
		Amount:          amount,
		Method:          strings.ToUpper(strings.TrimSpace(c.PostForm("method"))),
		FileName:        header.Filename,
		ContentType:     sniffContentType(content),
		Content:         content,
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[paymentsapp.SubmitPaymentProofCommand, *paymentsapp.SubmitPaymentProofResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Proofs(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	query := paymentsapp.ListBookingProofsQuery{Actor: actor, BookingID: strings.TrimSpace(c.Param("id"))}
	result, err := queries.Ask[paymentsapp.ListBookingProofsQuery, dto.PaymentProofCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// sniffContentType trusts the bytes, not the client header.
func sniffContentType(content []byte) string {
	ct := http.DetectContentType(content)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}

var _ BookingHTTP = BookingHandler{}
