package app

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/palmtreesdigital/fundingconnect/config"
	"go.uber.org/zap"
)

type testDeps struct{ built bool }

func testCore() *config.CoreConfig {
	cfg := &config.CoreConfig{Env: "dev", LogLevel: "error"}
	cfg.HTTP.HTTPPort = 0
	cfg.HTTP.ShutdownTimeout = time.Second
	return cfg
}

func TestRun_StopsOnConfigError(t *testing.T) {
	wantErr := errors.New("missing: smtp_host")
	built := false
	err := Run(context.Background(), Hooks[string, *testDeps]{
		Name: "test",
		LoadConfig: func(*zap.Logger) (*config.CoreConfig, string, error) {
			return nil, "", wantErr
		},
		BuildDeps: func(context.Context, *config.CoreConfig, string, *zap.Logger) (*testDeps, error) {
			built = true
			return &testDeps{}, nil
		},
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if built {
		t.Error("BuildDeps ran after a config error")
	}
}

func TestRun_PreflightErrorAborts(t *testing.T) {
	wantErr := errors.New("sendmail not found")
	handlerBuilt := false
	err := Run(context.Background(), Hooks[string, *testDeps]{
		Name: "test",
		LoadConfig: func(*zap.Logger) (*config.CoreConfig, string, error) {
			return testCore(), "app", nil
		},
		BuildDeps: func(context.Context, *config.CoreConfig, string, *zap.Logger) (*testDeps, error) {
			return &testDeps{built: true}, nil
		},
		Preflight: func(_ context.Context, _ *config.CoreConfig, _ string, d *testDeps, _ *zap.Logger) error {
			if !d.built {
				t.Error("preflight saw unbuilt deps")
			}
			return wantErr
		},
		BuildHandler: func(*config.CoreConfig, string, *testDeps, *zap.Logger) (http.Handler, error) {
			handlerBuilt = true
			return http.NotFoundHandler(), nil
		},
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if handlerBuilt {
		t.Error("BuildHandler ran after a failed preflight")
	}
}

func TestRun_ServesUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var gotApp string
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Hooks[string, *testDeps]{
			Name: "test",
			LoadConfig: func(*zap.Logger) (*config.CoreConfig, string, error) {
				return testCore(), "fundingconnect", nil
			},
			BuildDeps: func(_ context.Context, _ *config.CoreConfig, appCfg string, _ *zap.Logger) (*testDeps, error) {
				gotApp = appCfg
				return &testDeps{}, nil
			},
			BuildHandler: func(*config.CoreConfig, string, *testDeps, *zap.Logger) (http.Handler, error) {
				return http.NotFoundHandler(), nil
			},
		})
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if gotApp != "fundingconnect" {
		t.Errorf("app config = %q", gotApp)
	}
}
