package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"testing"

	"github.com/aretw0/swimlane/pkg/adapters/memory"
	"github.com/aretw0/swimlane/pkg/domain"
	"github.com/aretw0/swimlane/pkg/persistence/middleware"
	"github.com/aretw0/swimlane/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func secretBoard() *domain.BoardState {
	state := domain.DefaultState()
	state.Lanes[0].Items = append(state.Lanes[0].Items, domain.NewBlock("rotate prod credentials"))
	return state
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	original := secretBoard()

	if err := secureStore.Save(ctx, "board", original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Underlying store holds only the envelope.
	stored, err := underlyingStore.Load(ctx, "board")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if len(stored.Lanes) != 0 {
		t.Fatalf("Expected lanes to be hidden, found %d", len(stored.Lanes))
	}
	if stored.Sealed == "" {
		t.Fatal("Expected sealed envelope")
	}

	loaded, err := secureStore.Load(ctx, "board")
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if got := loaded.Lanes[0].Items[0].Name; got != "rotate prod credentials" {
		t.Errorf("Expected block name to survive, got %q", got)
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunStateStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)

	ctx := context.Background()
	if err := secureStoreOld.Save(ctx, "rotation", secretBoard()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, "rotation")
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}

	loaded.Lanes[0].Name = "re-encrypted"
	if err := secureStoreNew.Save(ctx, "rotation", loaded); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	if _, err := secureStoreOld.Load(ctx, "rotation"); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_PlainBoardFailsSecure(t *testing.T) {
	underlyingStore := NewMockStore()
	ctx := context.Background()
	_ = underlyingStore.Save(ctx, "plain", domain.DefaultState())

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	if _, err := secureStore.Load(ctx, "plain"); err != middleware.ErrMissingEnvelope {
		t.Errorf("Expected ErrMissingEnvelope, got %v", err)
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}

func TestParseKey(t *testing.T) {
	raw := generateKey(t)

	k, err := middleware.ParseKey(hex.EncodeToString(raw))
	if err != nil || string(k) != string(raw) {
		t.Errorf("hex key not parsed: %v", err)
	}
	if _, err := middleware.ParseKey("too-short"); err == nil {
		t.Error("expected error for short key")
	}
}
