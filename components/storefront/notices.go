package storefront

import (
	"context"
	"errors"
	"fmt"
)

// NoticeKind distinguishes success banners from error banners.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is the user-visible outcome of the last action.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	// Source is "storage" for upload failures, "load" for collection reads and
	// "data" for database writes.
	Source string `json:"source,omitempty"`
}

// TranslationService localizes notice texts. Implementations fall back to the
// provided default when a key is unknown.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

func translateOrFallback(ctx context.Context, svc TranslationService, key, locale, fallback string, params map[string]any) string {
	if svc != nil {
		if translated, err := svc.Translate(ctx, key, locale, params); err == nil && translated != "" {
			return translated
		}
	}
	if fallback != "" {
		return fallback
	}
	return key
}

var successTexts = map[string]string{
	"storefront.product.added":    "Product added successfully!",
	"storefront.product.updated":  "Product updated successfully!",
	"storefront.product.deleted":  "Product deleted successfully!",
	"storefront.order.status":     "Order status updated successfully!",
	"storefront.order.deleted":    "Order deleted successfully!",
	"storefront.request.deleted":  "Request deleted successfully!",
	"storefront.message.deleted":  "Message deleted successfully!",
	"storefront.order.placed":     "Order placed successfully! We will contact you shortly.",
	"storefront.request.received": "Request submitted successfully! Thank you for your interest.",
	"storefront.message.sent":     "Message sent successfully! Thank you for contacting us.",
}

// SuccessText returns the default copy for a success notice key.
func SuccessText(key string) string {
	return successTexts[key]
}

func loadFailureText(resource Resource) string {
	return fmt.Sprintf("Failed to load %s.", resource)
}

// noticeForError converts an action failure into the banner shown to the admin.
// Remote messages are surfaced verbatim.
func noticeForError(err error) Notice {
	var uploadErr *UploadError
	if errors.As(err, &uploadErr) {
		return Notice{Kind: NoticeError, Message: uploadErr.Error(), Source: "storage"}
	}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return Notice{Kind: NoticeError, Message: loadFailureText(loadErr.Resource), Source: "load"}
	}
	return Notice{Kind: NoticeError, Message: err.Error(), Source: "data"}
}
