package http

import (
	"errors"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nidohq/nido/internal/api/service"
	"github.com/nidohq/nido/internal/api/store/drivers/mem"
	"github.com/nidohq/nido/pkg/cryptox"
	"github.com/nidohq/nido/pkg/jwtx"
	"github.com/nidohq/nido/pkg/mailx"
	"github.com/nidohq/nido/pkg/nidosdk"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "nido-http-test")
	if err != nil {
		os.Exit(1)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// captureMailer records outgoing mail; failSend makes Send error.
type captureMailer struct {
	sent     []mailx.Message
	failSend bool
}

func (m *captureMailer) Send(msg mailx.Message) error {
	if m.failSend {
		return errors.New("smtp: connection refused")
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fixture struct {
	server *httptest.Server
	store  *mem.Store
	mailer *captureMailer
	signer *jwtx.Signer
}

// newFixture stands up a full router on the in-memory driver. Each fixture
// gets its own rate limiter state, so tests do not starve each other.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := mem.NewStore()
	signer, err := jwtx.NewSigner([]byte("test-secret-test-secret-test-key"), "nido-test")
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	mailer := &captureMailer{}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	router := NewRouter(signer, "test", st, logger, false, time.Hour)
	router.AuthService = &service.AuthService{Store: st, Signer: signer, SessionTTL: time.Hour}
	router.ResetService = &service.ResetService{
		Store:          st,
		Signer:         signer,
		Mailer:         mailer,
		FrontendOrigin: "https://nido.example",
		MailFrom:       "no-reply@nido.example",
	}
	router.ListingService = &service.ListingService{Store: st}
	router.UserService = &service.UserService{Store: st}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &fixture{server: srv, store: st, mailer: mailer, signer: signer}
}

func (f *fixture) client() *nidosdk.Client {
	return nidosdk.NewClient(f.server.URL)
}
