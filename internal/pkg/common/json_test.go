package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONRejectsTrailingData(t *testing.T) {
	var v map[string]interface{}
	err := ParseJSON(`{"a":1} {"b":2}`, &v)
	assert.Error(t, err)
}

func TestParseJSONStrictRejectsUnknownFields(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	require.NoError(t, ParseJSON(`{"name":"x","extra":1}`, &v))
	assert.Error(t, ParseJSONStrict(`{"name":"x","extra":1}`, &v))
}

func TestQuoteJSONKeys(t *testing.T) {
	assert.Equal(t, `{"core":["김치"],"optional":[]}`, QuoteJSONKeys(`{core:["김치"],optional:[]}`))
	// 已加引號的內容不變
	assert.Equal(t, `{"core":["김치"]}`, QuoteJSONKeys(`{"core":["김치"]}`))
}

func TestHashStringStable(t *testing.T) {
	assert.Equal(t, HashString("김치|두부"), HashString("김치|두부"))
	assert.NotEqual(t, HashString("김치"), HashString("두부"))
}
