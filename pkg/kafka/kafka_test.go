package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Sentence string `json:"sentence"`
	Results  int    `json:"results"`
}

func TestEncodeMessages(t *testing.T) {
	msgs, err := encodeMessages([]Event{
		{Key: "a", Value: sample{Sentence: "yes man", Results: 14}},
		{Key: "b", Value: map[string]int{"n": 1}},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, []byte("a"), msgs[0].Key)
	assert.JSONEq(t, `{"sentence":"yes man","results":14}`, string(msgs[0].Value))
}

func TestEncodeMessagesRejectsUnencodable(t *testing.T) {
	_, err := encodeMessages([]Event{{Key: "bad", Value: make(chan int)}})
	assert.Error(t, err)
}

func TestDecodeJSON(t *testing.T) {
	got, err := DecodeJSON[sample]([]byte(`{"sentence":"eat","results":3}`))
	require.NoError(t, err)
	assert.Equal(t, sample{Sentence: "eat", Results: 3}, got)

	_, err = DecodeJSON[sample]([]byte(`{`))
	assert.Error(t, err)
}

func TestPublishBatchEmptyIsNoop(t *testing.T) {
	p := &Producer{}
	assert.NoError(t, p.PublishBatch(context.Background(), nil))
}

func TestPingWithoutBrokers(t *testing.T) {
	assert.Error(t, Ping(context.Background(), nil))
}
