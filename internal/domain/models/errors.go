package models

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind tags why a signal is unavailable.
type ErrorKind string

const (
	KindProvider         ErrorKind = "provider"
	KindTimeout          ErrorKind = "timeout"
	KindDecoding         ErrorKind = "decoding"
	KindConfig           ErrorKind = "config"
	KindInsufficientData ErrorKind = "insufficient_data"
	KindCancelled        ErrorKind = "cancelled"
)

var ErrInsufficientData = errors.New("insufficient data")

// ProviderError is a non-success status (or transport failure) from an upstream API.
type ProviderError struct {
	Provider string
	URL      string
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s error (%d) for %s", e.Provider, e.Status, e.URL)
	}
	return fmt.Sprintf("%s request to %s failed: %v", e.Provider, e.URL, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// TimeoutError means a bounded call did not finish in time.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// DecodingError means the provider answered but the payload had an unexpected shape.
type DecodingError struct {
	What string
	Err  error
}

func (e *DecodingError) Error() string {
	if e.Err == nil {
		return "decode " + e.What
	}
	return fmt.Sprintf("decode %s: %v", e.What, e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// ConfigError means a required setting or credential is missing.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

// ClassifyError maps any error produced below the aggregator to an ErrorKind.
func ClassifyError(err error) ErrorKind {
	var (
		pe  *ProviderError
		te  *TimeoutError
		de  *DecodingError
		ce  *ConfigError
		nte net.Error
	)
	switch {
	case errors.As(err, &te), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.As(err, &ce):
		return KindConfig
	case errors.As(err, &de):
		return KindDecoding
	case errors.Is(err, ErrInsufficientData):
		return KindInsufficientData
	case errors.As(err, &pe):
		if pe.Status == 0 && errors.As(pe.Err, &nte) && nte.Timeout() {
			return KindTimeout
		}
		return KindProvider
	case errors.As(err, &nte) && nte.Timeout():
		return KindTimeout
	default:
		return KindProvider
	}
}
