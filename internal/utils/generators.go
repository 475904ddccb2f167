package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

func NewID() string {
	return uuid.NewString()
}

// GenerateObjectKey names an uploaded object as <unix-millis>-<base36 random>.<ext>.
func GenerateObjectKey(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if ext == "" {
		ext = "bin"
	}

	randomNum, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		randomNum = big.NewInt(time.Now().UnixNano())
	}
	return fmt.Sprintf("%d-%s.%s", time.Now().UnixMilli(), strconv.FormatInt(randomNum.Int64(), 36), ext)
}
