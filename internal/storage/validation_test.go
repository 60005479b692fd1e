package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/findash/internal/service"
)

func TestValidateDocument(t *testing.T) {
	valid := service.Scope{Namespace: testNamespace, UserID: "alice"}

	tests := []struct {
		ctx     context.Context
		wantErr error
		name    string
		id      string
		scope   service.Scope
	}{
		{name: "valid", ctx: context.Background(), scope: valid, id: "doc-1"},
		{name: "nil context", ctx: nil, scope: valid, id: "doc-1", wantErr: ErrNilContext},
		{name: "missing namespace", ctx: context.Background(), scope: service.Scope{UserID: "alice"}, id: "doc-1", wantErr: ErrInvalidScope},
		{name: "missing user", ctx: context.Background(), scope: service.Scope{Namespace: testNamespace}, id: "doc-1", wantErr: ErrInvalidScope},
		{name: "user with slash", ctx: context.Background(), scope: service.Scope{Namespace: testNamespace, UserID: "a/b"}, id: "doc-1", wantErr: ErrInvalidScope},
		{name: "blank id", ctx: context.Background(), scope: valid, id: "  ", wantErr: ErrEmptyString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateDocument(tt.ctx, tt.scope, tt.id)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
