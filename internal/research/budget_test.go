package research

import (
	"context"
	"testing"

	"github.com/JoseCortezz25/fact-checking-app/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeter_NodeCap(t *testing.T) {
	m := NewMeter(Budget{MaxNodes: 2})
	require.NoError(t, m.EnterNode())
	require.NoError(t, m.EnterNode())
	assert.ErrorIs(t, m.EnterNode(), ErrBudgetExhausted)
	assert.Equal(t, 2, m.Nodes())
}

func TestMeter_ProviderCap(t *testing.T) {
	fake := newFakeProvider()
	m := NewMeter(Budget{MaxLLMCalls: 1})
	p := m.Provider(fake)

	_, err := p.GenerateObject(context.Background(), llm.ObjectRequest{SchemaName: schemaRelevant})
	require.NoError(t, err)

	_, err = p.GenerateObject(context.Background(), llm.ObjectRequest{SchemaName: schemaRelevant})
	assert.ErrorIs(t, err, ErrBudgetExhausted)
	assert.Equal(t, 1, fake.callCount(schemaRelevant), "refused calls never reach the provider")

	_, err = m.Counting(fake).GenerateObject(context.Background(), llm.ObjectRequest{SchemaName: schemaRelevant})
	require.NoError(t, err)
	assert.Equal(t, 2, m.LLMCalls())
}

func TestMeter_SourceCap(t *testing.T) {
	src := &fakeSource{}
	m := NewMeter(Budget{MaxSearchCalls: 1})
	s := m.Source(src)

	_, err := s.Search(context.Background(), "one")
	require.NoError(t, err)
	_, err = s.Search(context.Background(), "two")
	assert.ErrorIs(t, err, ErrBudgetExhausted)
	assert.Equal(t, []string{"one"}, src.searched())
	assert.Equal(t, 1, m.SearchCalls())
}

func TestMeter_ZeroMeansUnlimited(t *testing.T) {
	m := NewMeter(Budget{})
	for i := 0; i < 100; i++ {
		require.NoError(t, m.EnterNode())
	}
}
