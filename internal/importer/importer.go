// Package importer turns raw bank SMS text into transaction drafts using a
// generative model. The extractor is an interface so the service layer and
// tests can run without network access.
package importer

import (
	"context"
	"errors"

	"spendsense/internal/core"
)

// ErrEmptyMessage is returned when the SMS text is blank.
var ErrEmptyMessage = errors.New("importer: empty message")

// ErrExtraction wraps any upstream model failure so callers can map it to a
// single gateway error without inspecting provider internals.
var ErrExtraction = errors.New("importer: extraction failed")

// Extractor parses a single SMS message into a draft. Implementations must
// fill every draft field, substituting sensible guesses where the message
// is silent.
type Extractor interface {
	Extract(ctx context.Context, message string) (core.Draft, error)
}

// MockSMSTemplates are canned bank messages for demos and manual testing.
var MockSMSTemplates = []string{
	"Rs.2,500.00 debited from A/c XX1234 on 28-08-26 to VPA swiggy@ybl (UPI Ref No 862345123456). Not you? Call 18002586161 -HDFC Bank",
	"INR 45,000.00 credited to A/c XX5678 on 01-08-26 by A/c linked to mobile 9XXXXX1234 (IMPS Ref no 821900123456) -ICICI Bank",
	"Your A/c XX4321 is debited INR 1,199.00 on 25-08-26 towards NETFLIX.COM. Avl Bal INR 52,340.12 -SBI",
	"Rs.899.00 spent on Axis Bank Credit Card XX7788 at AMAZON PAY on 30-08-26. Ref 445566778899 -Axis Bank",
}
