package main

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	app := &cli.App{
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info"},
		},
		Before: setupLogger,
		Action: func(c *cli.Context) error { return nil },
	}

	t.Run("accepts known levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "Warn"} {
			err := app.Run([]string{"docent", "--log-level", level})
			assert.NoError(t, err, "level %q", level)
		}
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		err := app.Run([]string{"docent", "--log-level", "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestCommonFlags(t *testing.T) {
	flags := commonFlags()

	var hostFlag *cli.StringFlag
	var dbFlag, libraryFlag *cli.StringFlag
	for _, flag := range flags {
		f, ok := flag.(*cli.StringFlag)
		if !ok {
			continue
		}
		switch f.Name {
		case "host":
			hostFlag = f
		case "db":
			dbFlag = f
		case "library":
			libraryFlag = f
		}
	}

	require.NotNil(t, hostFlag)
	assert.Equal(t, "http://localhost:11434/v1", hostFlag.Value)

	require.NotNil(t, dbFlag)
	assert.True(t, dbFlag.Required)
	require.NotNil(t, libraryFlag)
	assert.True(t, libraryFlag.Required)
}

func TestReadInput(t *testing.T) {
	t.Run("file with derived title", func(t *testing.T) {
		path := t.TempDir() + "/pump-manual.txt"
		require.NoError(t, os.WriteFile(path, []byte("body text"), 0644))

		body, title, err := readInput(path, "")
		require.NoError(t, err)
		assert.Equal(t, "body text", body)
		assert.Equal(t, "pump-manual", title)
	})

	t.Run("explicit title wins", func(t *testing.T) {
		path := t.TempDir() + "/x.txt"
		require.NoError(t, os.WriteFile(path, []byte("body"), 0644))

		_, title, err := readInput(path, "Pump Manual")
		require.NoError(t, err)
		assert.Equal(t, "Pump Manual", title)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := readInput("/nonexistent/file.txt", "")
		assert.Error(t, err)
	})
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short", 10))
	assert.Equal(t, "a b c", snippet("a\n  b\tc", 10))
	assert.Equal(t, "0123456789...", snippet("0123456789abcdef", 10))
}
