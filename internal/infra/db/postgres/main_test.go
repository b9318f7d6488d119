//go:build integration

package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
)

var testPool *pgxpool.Pool

const (
	testDBName = "portal_test"
	testDBUser = "portal"
	testDBPass = "portal"
)

// schemaPath locates deploy/postgres/init.sql relative to the module root,
// identified by the nearest go.mod above the working directory.
func schemaPath() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "deploy", "postgres", "init.sql"), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found in any parent directory")
		}
		dir = parent
	}
}

func TestMain(m *testing.M) {
	ctx := context.Background()

	cmd := exec.Command("docker", "run", "-d", "--rm",
		"--network", "host",
		"-e", "POSTGRES_DB="+testDBName,
		"-e", "POSTGRES_USER="+testDBUser,
		"-e", "POSTGRES_PASSWORD="+testDBPass,
		"postgres:14",
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		log.Fatalf("could not start postgres container: %v. Is Docker running?", err)
	}
	containerID := strings.TrimSpace(out.String())[:12]
	stopContainer := func() {
		if err := exec.Command("docker", "stop", containerID).Run(); err != nil {
			log.Printf("could not stop postgres container %s: %v", containerID, err)
		}
	}

	connStr := fmt.Sprintf("postgres://%s:%s@localhost:5432/%s?sslmode=disable",
		testDBUser, testDBPass, testDBName)
	var err error
	for attempt := 1; attempt <= 15; attempt++ {
		testPool, err = NewPgxPool(ctx, connStr, 4)
		if err == nil {
			break
		}
		log.Printf("waiting for postgres (attempt %d/15)", attempt)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		stopContainer()
		log.Fatalf("test database never became ready: %v", err)
	}

	path, err := schemaPath()
	if err != nil {
		log.Fatalf("could not locate schema: %v", err)
	}
	schema, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("could not read %s: %v", path, err)
	}
	if _, err := testPool.Exec(ctx, string(schema)); err != nil {
		log.Fatalf("could not apply schema: %v", err)
	}

	exitCode := m.Run()

	testPool.Close()
	stopContainer()
	os.Exit(exitCode)
}

func cleanup(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(), `
		TRUNCATE
			access_plans, voucher_sessions,
			portal_settings_router, portal_settings_payment
		RESTART IDENTITY CASCADE
	`)
	if err != nil {
		t.Fatalf("failed to clean up database: %v", err)
	}
}
