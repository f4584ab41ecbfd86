package storage

import (
	"context"
	"strings"
	"time"
)

// PublicLinks implements Signer for storage that is already reachable
// under a fixed base URL, such as the local directory served by a static
// file server. The links carry no signature and never expire.
type PublicLinks struct {
	base string
}

func NewPublicLinks(base string) *PublicLinks {
	return &PublicLinks{base: strings.TrimRight(base, "/")}
}

func (p *PublicLinks) SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error) {
	return p.base + "/" + strings.TrimLeft(objectName, "/"), nil
}
