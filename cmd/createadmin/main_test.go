package main

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	original := readPassword
	t.Cleanup(func() { readPassword = original })

	readPassword = func(int) ([]byte, error) {
		if len(answers) == 0 {
			return nil, errors.New("no more input")
		}
		next := answers[0]
		answers = answers[1:]
		return []byte(next), nil
	}
}

func useTempDatabase(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "admin.db"))
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("LOG_LEVEL", "ERROR")
}

func TestRun_CreatesAdmin(t *testing.T) {
	useTempDatabase(t)
	stubPasswords(t, "s3cret", "s3cret")

	require.NoError(t, run("root@example.com", "root", true))
}

func TestRun_DuplicateEmail(t *testing.T) {
	useTempDatabase(t)
	stubPasswords(t, "s3cret", "s3cret", "other", "other")

	require.NoError(t, run("root@example.com", "", true))
	assert.EqualError(t, run("root@example.com", "", true), "admin not created")
}

func TestRun_InputErrors(t *testing.T) {
	useTempDatabase(t)

	t.Run("missing email", func(t *testing.T) {
		assert.EqualError(t, run("", "", true), "-email is required")
	})

	t.Run("mismatched passwords", func(t *testing.T) {
		stubPasswords(t, "one", "two")
		assert.EqualError(t, run("a@example.com", "", true), "passwords do not match")
	})

	t.Run("empty password", func(t *testing.T) {
		stubPasswords(t, "", "")
		assert.EqualError(t, run("a@example.com", "", true), "password must not be empty")
	})
}
