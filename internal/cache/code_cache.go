package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/getmentor/authflow/pkg/jwt"
	"github.com/getmentor/authflow/pkg/logger"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// MaxCodeAttempts is how many wrong guesses burn a pending code
const MaxCodeAttempts = 5

type pendingCode struct {
	code     string
	attempts int
}

// CodeCache holds the one-time codes waiting to be verified, keyed by email.
// Entries expire after the TTL and are removed on first successful use.
type CodeCache struct {
	cache *gocache.Cache
	ttl   time.Duration
	mu    sync.Mutex
}

// NewCodeCache creates a code cache whose entries live for ttl
func NewCodeCache(ttl time.Duration) *CodeCache {
	return &CodeCache{
		cache: gocache.New(ttl, time.Minute),
		ttl:   ttl,
	}
}

// Put stores code for email, replacing any pending one
func (cc *CodeCache) Put(email, code string) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.cache.Set(codeKey(email), &pendingCode{code: code}, cc.ttl)
	logger.Debug("Verification code stored", zap.String("email", email), zap.Duration("ttl", cc.ttl))
}

// Consume reports whether code matches the pending code for email. A match
// removes the entry; too many misses remove it as well.
func (cc *CodeCache) Consume(email, code string) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	key := codeKey(email)
	data, found := cc.cache.Get(key)
	if !found {
		logger.Debug("Verification code cache miss", zap.String("email", email))
		return false
	}

	pending, ok := data.(*pendingCode)
	if !ok {
		logger.Error("Invalid code cache data type")
		cc.cache.Delete(key)
		return false
	}

	if jwt.TimingSafeCompare(code, pending.code) {
		cc.cache.Delete(key)
		return true
	}

	pending.attempts++
	if pending.attempts >= MaxCodeAttempts {
		logger.Warn("Verification code burned after too many attempts", zap.String("email", email))
		cc.cache.Delete(key)
	}
	return false
}

// Pending reports whether email has a code waiting
func (cc *CodeCache) Pending(email string) bool {
	_, found := cc.cache.Get(codeKey(email))
	return found
}

func codeKey(email string) string {
	return "code:" + strings.ToLower(strings.TrimSpace(email))
}
