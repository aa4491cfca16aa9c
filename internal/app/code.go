package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"

	"github.com/basecloud/tenantd/internal/domain"
)

// codeTemplate defines the shape of generated tenant codes: the text
// before '#' is a fixed prefix, the digit after it is the width of the
// random numeric suffix.
const codeTemplate = "TI-#5"

// maxCodeAttempts bounds how many candidates the generator tries before
// declaring the code space exhausted. Collisions are rare with a healthy
// template space, so hitting the bound means something is wrong.
const maxCodeAttempts = 20

// CodeGenerator produces unique human-readable tenant codes. The store's
// count check filters candidates, but the schema's unique constraint is
// the authoritative guard; callers must treat an insert-time
// CodeConflictError as retryable.
type CodeGenerator struct {
	store  domain.TenantStore
	prefix string
	width  int
}

// NewCodeGenerator creates a generator using the platform code template.
func NewCodeGenerator(store domain.TenantStore) *CodeGenerator {
	prefix, widthStr, _ := strings.Cut(codeTemplate, "#")
	width, err := strconv.Atoi(widthStr)
	if err != nil || width <= 0 {
		panic(fmt.Sprintf("malformed code template %q", codeTemplate))
	}
	return &CodeGenerator{store: store, prefix: prefix, width: width}
}

// Next returns a code not currently in use, or ErrCodeExhausted after the
// bounded number of colliding candidates.
func (g *CodeGenerator) Next(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := g.candidate()
		if err != nil {
			return "", fmt.Errorf("generating code candidate: %w", err)
		}

		count, err := g.store.CountByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("checking code usage: %w", err)
		}
		if count > 0 {
			continue
		}

		return code, nil
	}

	return "", domain.ErrCodeExhausted
}

// candidate builds one prefix + fixed-width random digits code.
func (g *CodeGenerator) candidate() (string, error) {
	b := make([]byte, g.width)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	digits := make([]byte, g.width)
	for i, v := range b {
		digits[i] = '0' + v%10
	}

	return g.prefix + string(digits), nil
}
