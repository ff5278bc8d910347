package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	t.Parallel()

	env := &Envelope{
		Kind:        KindUserMessage,
		TargetPath:  "movie://sys/user/greeter",
		MessageType: "Ping",
		Payload:     []byte(`{"n":1}`),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, env))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, env.Kind, got.Kind)
	require.Equal(t, env.TargetPath, got.TargetPath)
	require.Equal(t, env.MessageType, got.MessageType)
	require.JSONEq(t, string(env.Payload), string(got.Payload))
}

func TestReadFrameCleanEOF(t *testing.T) {
	t.Parallel()

	_, err := ReadFrame(&bytes.Buffer{})
	require.ErrorIs(t, err, io.EOF)
}

func TestReadFrameZeroLengthIsMalformed(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], 0)
	buf.Write(lenBuf[:])

	_, err := ReadFrame(&buf)
	require.ErrorIs(t, err, ErrMalformedFrame)
}

func TestReadFrameTooLarge(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], MaxFrameSize+1)
	buf.Write(lenBuf[:])

	_, err := ReadFrame(&buf)
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestReadFrameMalformedJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var lenBuf [4]byte
	body := []byte("not json")
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))
	buf.Write(lenBuf[:])
	buf.Write(body)

	_, err := ReadFrame(&buf)
	require.ErrorIs(t, err, ErrMalformedFrame)
}

func TestFrameRoundTripProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		env := &Envelope{
			Kind:          Kind(rapid.SampledFrom([]string{string(KindUserMessage), string(KindAskRequest), string(KindAskResponse)}).Draw(rt, "kind")),
			TargetPath:    rapid.StringMatching(`[a-z/]{0,40}`).Draw(rt, "target"),
			MessageType:   rapid.StringMatching(`[A-Za-z]{0,20}`).Draw(rt, "msgtype"),
			CorrelationID: rapid.StringMatching(`[a-f0-9-]{0,36}`).Draw(rt, "corr"),
		}

		var buf bytes.Buffer
		require.NoError(rt, WriteFrame(&buf, env))

		got, err := ReadFrame(&buf)
		require.NoError(rt, err)
		require.Equal(rt, env.Kind, got.Kind)
		require.Equal(rt, env.TargetPath, got.TargetPath)
		require.Equal(rt, env.MessageType, got.MessageType)
		require.Equal(rt, env.CorrelationID, got.CorrelationID)

		_, err = ReadFrame(&buf)
		require.ErrorIs(rt, err, io.EOF)
	})
}
