package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "only separators", input: " , ,", expected: nil},
		{name: "trims entries", input: " a , b,c ", expected: []string{"a", "b", "c"}},
		{name: "drops repeats in order", input: "b,a,b,c,a", expected: []string{"b", "a", "c"}},
		{name: "keeps case", input: "Topic,topic", expected: []string{"Topic", "topic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input))
		})
	}
}

func TestSplitHosts(t *testing.T) {
	assert.Equal(t,
		[]string{"kafka-1:9092", "kafka-2:9092"},
		SplitHosts("Kafka-1:9092, kafka-1:9092 ,KAFKA-2:9092,"),
	)
	assert.Nil(t, SplitHosts(""))
}
