package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

func generate(prefix string, width int64) string {
	timestamp := time.Now().Unix()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(width))
	return fmt.Sprintf("%s_%d_%06d", prefix, timestamp, randomNum.Int64())
}

// GenerateTicketID creates a unique id for a newly issued ticket.
func GenerateTicketID() string {
	return generate("tkt", 999999)
}

// GenerateScanLogID creates a unique id for a scan-log entry.
func GenerateScanLogID() string {
	return generate("slog", 999999)
}

// GenerateAdminActionID creates a unique id for an admin-action record.
func GenerateAdminActionID() string {
	return generate("adm", 999999)
}
