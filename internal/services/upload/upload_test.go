package upload

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/household-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/household-ledger/internal/wire"
)

type StoreMock struct{ mock.Mock }

func (m *StoreMock) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

func TestService_Upload(t *testing.T) {
	ctx := context.Background()
	store := new(StoreMock)
	store.On("Put", ctx, "users/maria/abc-nota_fiscal.pdf", []byte("%PDF-"), "application/pdf").
		Return("http://files/users/maria/abc-nota_fiscal.pdf", nil).Once()

	svc := New(store, sl.Discard())
	svc.newID = func() string { return "abc" }

	got, err := svc.Upload(ctx, wire.UploadRequest{
		File:     "data:application/pdf;base64,JVBERi0=",
		Filename: "../nota fiscal.pdf",
		UserID:   "maria",
	})

	require.NoError(t, err)
	assert.Equal(t, &wire.UploadResponse{
		Success:  true,
		URL:      "http://files/users/maria/abc-nota_fiscal.pdf",
		PublicID: "users/maria/abc-nota_fiscal.pdf",
	}, got)
	store.AssertExpectations(t)
}

func TestService_UploadErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     wire.UploadRequest
		putErr  error
		wantErr error
	}{
		{name: "не base64", req: wire.UploadRequest{File: "%%%", Filename: "a.png", UserID: "maria"}, wantErr: wire.ErrInvalidFile},
		{name: "пустой файл", req: wire.UploadRequest{File: "data:image/png;base64,", Filename: "a.png", UserID: "maria"}, wantErr: ErrEmptyFile},
		{name: "хранилище недоступно", req: wire.UploadRequest{File: "aGVsbG8=", Filename: "a.png", UserID: "maria"}, putErr: errors.New("s3 down")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(StoreMock)
			store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", tt.putErr)

			_, err := New(store, sl.Discard()).Upload(context.Background(), tt.req)

			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "Manutenção_2025.pdf", safeName("Manutenção 2025.pdf"))
	assert.Equal(t, "file", safeName(".."))
	assert.Equal(t, "a_b", safeName("a/b"))
}
