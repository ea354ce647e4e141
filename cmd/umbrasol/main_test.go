package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoiceLoopStopsAtQuitWithoutInterrupting(t *testing.T) {
	quit := make(chan struct{})
	var executed []string
	execute := func(ctx context.Context, req string) (string, error) {
		executed = append(executed, req)
		// Shutdown lands mid-request; the request still completes and no
		// further line is picked up.
		close(quit)
		return "done", nil
	}

	in := strings.NewReader("first request\nsecond request\nthird request\n")
	err := voiceLoop(context.Background(), quit, in, execute)
	require.NoError(t, err)
	assert.Equal(t, []string{"first request"}, executed)
}

func TestVoiceLoopQuitBeforeAnyRequest(t *testing.T) {
	quit := make(chan struct{})
	close(quit)

	executed := 0
	err := voiceLoop(context.Background(), quit, strings.NewReader("hello\n"),
		func(ctx context.Context, req string) (string, error) {
			executed++
			return "", nil
		})
	require.NoError(t, err)
	assert.Zero(t, executed)
}

func TestVoiceLoopSkipsBlankLines(t *testing.T) {
	var executed []string
	err := voiceLoop(context.Background(), make(chan struct{}),
		strings.NewReader("\n   \ncheck battery\n"),
		func(ctx context.Context, req string) (string, error) {
			executed = append(executed, req)
			return "", nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"check battery"}, executed)
}
