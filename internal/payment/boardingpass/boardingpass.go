package boardingpass

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/skip2/go-qrcode"

	"ms-booking/internal/models"
)

// Generator issues the encrypted QR boarding pass attached to a paid
// booking's receipt. The payload is AES-encrypted so a scanned pass can
// only be read back by the platform.
type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

type passPayload struct {
	BookingID     string `json:"booking_id"`
	TicketID      string `json:"ticket_id"`
	TransactionID string `json:"transaction_id"`
	BuyerEmail    string `json:"buyer_email"`
	Quantity      int    `json:"quantity"`
	Departure     string `json:"departure"`
}

// Generate renders the boarding pass QR for a paid booking.
func (g *Generator) Generate(booking models.Booking, transactionID string) ([]byte, error) {
	data, err := json.Marshal(passPayload{
		BookingID:     booking.BookingID,
		TicketID:      booking.TicketID,
		TransactionID: transactionID,
		BuyerEmail:    booking.BuyerEmail,
		Quantity:      booking.Quantity,
		Departure:     booking.Departure.UTC().Format("2006-01-02T15:04:05Z"),
	})
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, g.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}
