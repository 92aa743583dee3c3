package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// registrationSequenceDigits is the zero padded width of the sequence suffix.
	registrationSequenceDigits = 4
	// maxSequenceAttempts bounds both the existence re-check loop and the time based fallback.
	maxSequenceAttempts = 100
)

// ErrRegistrationNumbersExhausted is returned when no free number could be found.
var ErrRegistrationNumbersExhausted = errors.New("no free registration number")

// GenerateRegistrationNumber returns the next free number of the form <prefix><year><NNNN>.
// The highest numeric suffix of the current year is incremented and re-checked
// for existence. Numbers whose suffix is not purely numeric, such as admin
// accounts created by hand, are ignored. The result is not reserved; RegisterUser
// relies on the unique index to catch a concurrent insert.
func (c *Client) GenerateRegistrationNumber(ctx context.Context, prefix string) (string, error) {
	yearPrefix := fmt.Sprintf("%s%d", prefix, c.now().Year())

	var numbers []string
	if err := c.db.WithContext(ctx).
		Model(&User{}).
		Where("registration_number LIKE ?", yearPrefix+"%").
		Pluck("registration_number", &numbers).Error; err != nil {
		log.Error("failed to get registration numbers", "error", err)
		return "", err
	}

	highest := 0
	for _, n := range numbers {
		if seq, ok := parseSequence(strings.TrimPrefix(n, yearPrefix)); ok && seq > highest {
			highest = seq
		}
	}

	return c.nextFreeRegistrationNumber(ctx, yearPrefix, highest+1)
}

// nextFreeRegistrationNumber walks upward from start until a number is free.
// After maxSequenceAttempts collisions it walks upward from a suffix derived
// from the clock instead.
func (c *Client) nextFreeRegistrationNumber(ctx context.Context, yearPrefix string, start int) (string, error) {
	number, ok, err := c.firstFreeFrom(ctx, yearPrefix, start)
	if err != nil || ok {
		return number, err
	}

	seed := int(c.now().UnixMilli() % 10000)
	log.Warn("registration sequence exhausted, using time based number", "start", start, "seed", seed)
	number, ok, err = c.firstFreeFrom(ctx, yearPrefix, seed)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrRegistrationNumbersExhausted
	}
	return number, nil
}

func (c *Client) firstFreeFrom(ctx context.Context, yearPrefix string, seq int) (string, bool, error) {
	for range maxSequenceAttempts {
		candidate := formatRegistrationNumber(yearPrefix, seq)
		exists, err := c.registrationNumberExists(ctx, candidate)
		if err != nil {
			return "", false, err
		}
		if !exists {
			return candidate, true, nil
		}
		seq++
	}
	return "", false, nil
}

// parseSequence accepts only plain decimal digits.
func parseSequence(suffix string) (int, bool) {
	if suffix == "" || strings.TrimLeft(suffix, "0123456789") != "" {
		return 0, false
	}
	seq, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return seq, true
}

func formatRegistrationNumber(yearPrefix string, seq int) string {
	return fmt.Sprintf("%s%0*d", yearPrefix, registrationSequenceDigits, seq)
}

func (c *Client) registrationNumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&User{}).Where("registration_number = ?", number).Count(&count).Error; err != nil {
		log.Error("failed to check registration number", "error", err)
		return false, err
	}
	return count > 0, nil
}
