package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmoke(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runSmokeTests(context.Background(), &buf))
	assert.Contains(t, buf.String(), "3/3 passed")
}

func TestDeterminism(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testDeterminism(context.Background(), &buf, 11, 20))
	assert.Contains(t, buf.String(), "results identical")
}

func TestVerify(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runVerify(context.Background(), &buf, 5, 10))
	assert.Contains(t, buf.String(), "0 violations")
}
