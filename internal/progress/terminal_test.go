package progress_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"extractor/internal/progress"
	"extractor/pkg/domain"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func TestBar(t *testing.T) {
	require.Equal(t, "[          ]", progress.Bar(0, 10))
	require.Equal(t, "[=====     ]", progress.Bar(50, 10))
	require.Equal(t, "[==========]", progress.Bar(100, 10))
	require.Equal(t, "[==========]", progress.Bar(250, 10))
	require.Equal(t, "[          ]", progress.Bar(-3, 10))
	require.Len(t, progress.Bar(40, 0), 12)
}

func TestTerminal_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	term := progress.NewTerminal(&buf, false)
	ctx := context.Background()

	term.Progress(ctx, domain.Progress{Processed: 1, Total: 200, Percent: 1})
	term.Progress(ctx, domain.Progress{Processed: 2, Total: 200, Percent: 1})
	term.Progress(ctx, domain.Progress{Processed: 200, Total: 200, Percent: 100})
	term.Finished(ctx, domain.RunResult{
		Emails:  []domain.Email{"a@x.com", "b@y.org"},
		Files:   200,
		Output:  "out.txt",
		Written: true,
		Failed:  []domain.FileReport{{Path: "bad.zip", Err: errors.New("zip: not a valid zip file")}},
		Elapsed: 1234 * time.Millisecond,
	})

	require.Equal(t, "Progress: 1%\n"+
		"Progress: 100%\n"+
		"Found 2 unique email addresses. Saved to out.txt.\n"+
		"Skipped 1 of 200 files that could not be read:\n"+
		"  bad.zip: zip: not a valid zip file\n"+
		"Elapsed Time: 1.23 seconds\n", buf.String())
}

func TestTerminal_NoEmails(t *testing.T) {
	var buf bytes.Buffer
	term := progress.NewTerminal(&buf, false)

	term.Finished(context.Background(), domain.RunResult{Elapsed: 20 * time.Millisecond})

	require.Equal(t, "No email addresses found.\nElapsed Time: 0.02 seconds\n", buf.String())
}

func TestTerminal_TTYRedrawsLine(t *testing.T) {
	var buf bytes.Buffer
	term := progress.NewTerminal(&buf, true)
	ctx := context.Background()

	term.Progress(ctx, domain.Progress{Processed: 1, Total: 2, Percent: 50, Unique: 3})
	require.Equal(t, "\rProgress: "+progress.Bar(50, 30)+"  50% (1/2 files, 3 unique)", buf.String())

	buf.Reset()
	term.Finished(ctx, domain.RunResult{Elapsed: time.Second})
	require.Equal(t, "\nNo email addresses found.\nElapsed Time: 1.00 seconds\n", buf.String())
}
