package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"voxcmd/internal/audio"
	"voxcmd/internal/recognizer"
	"voxcmd/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) Handle(ctx context.Context, u model.Utterance) (*model.Result, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Result), args.Error(1)
}

type MockDecoder struct {
	mock.Mock
}

func (m *MockDecoder) Utterance(ctx context.Context, input []byte) (model.Utterance, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(model.Utterance), args.Error(1)
}

// MockCache mocks RedisCache
type MockCache struct {
	mock.Mock
	data map[string]interface{}
}

func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string]interface{}),
	}
}

func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockCache) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	if args.Error(0) == nil {
		m.data[key] = value
	}
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	if args.Error(0) == nil {
		delete(m.data, key)
	}
	return args.Error(0)
}

func (m *MockCache) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestBot_IsActive(t *testing.T) {
	tests := []struct {
		name     string
		chatID   int64
		setup    func(*MockCache)
		expected bool
	}{
		{
			name:   "chat is active",
			chatID: 123,
			setup: func(mc *MockCache) {
				mc.On("Get", mock.Anything, "chat:active:123", mock.Anything).
					Run(func(args mock.Arguments) {
						dest := args.Get(2).(*string)
						*dest = "true"
					}).
					Return(nil)
			},
			expected: true,
		},
		{
			name:   "chat is inactive (key not found)",
			chatID: 456,
			setup: func(mc *MockCache) {
				mc.On("Get", mock.Anything, "chat:active:456", mock.Anything).
					Return(errors.New("key not found"))
			},
			expected: false,
		},
		{
			name:   "unexpected value",
			chatID: 789,
			setup: func(mc *MockCache) {
				mc.On("Get", mock.Anything, "chat:active:789", mock.Anything).
					Run(func(args mock.Arguments) {
						dest := args.Get(2).(*string)
						*dest = "false"
					}).
					Return(nil)
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCache := NewMockCache()
			tt.setup(mockCache)

			b := &Bot{
				cache: mockCache,
			}

			result := b.isActive(tt.chatID)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestBot_ActivateDeactivate(t *testing.T) {
	mockCache := NewMockCache()
	mockCache.On("SetWithTTL", mock.Anything, "chat:active:42", "true", activeTTL).Return(nil)
	mockCache.On("Delete", mock.Anything, "chat:active:42").Return(nil)

	b := &Bot{cache: mockCache}
	ctx := context.Background()

	require.NoError(t, b.activate(ctx, 42))
	assert.Equal(t, "true", mockCache.data["chat:active:42"])

	require.NoError(t, b.deactivate(ctx, 42))
	assert.NotContains(t, mockCache.data, "chat:active:42")

	mockCache.AssertExpectations(t)
}

func TestBot_Process(t *testing.T) {
	input := []byte("ogg-bytes")
	utterance := model.Utterance{Audio: []byte{1, 0, 2, 0}, SampleRate: 16000}

	t.Run("recognized command", func(t *testing.T) {
		dec := new(MockDecoder)
		pipe := new(MockPipeline)
		dec.On("Utterance", mock.Anything, input).Return(utterance, nil)
		pipe.On("Handle", mock.Anything, utterance).Return(&model.Result{
			Text:   "покажи номенклатуру код 123",
			Engine: model.EngineFast,
			Intent: model.IntentOpenCatalogByCode,
			Fields: model.Fields{"catalog": "Номенклатура", "code": 123},
		}, nil)

		b := &Bot{pipeline: pipe, decoder: dec}
		reply, err := b.process(context.Background(), input)

		require.NoError(t, err)
		assert.Contains(t, reply, "Команда: OpenCatalogByCode")
		assert.Contains(t, reply, "code: 123")
		dec.AssertExpectations(t)
		pipe.AssertExpectations(t)
	})

	t.Run("unsupported audio", func(t *testing.T) {
		dec := new(MockDecoder)
		pipe := new(MockPipeline)
		dec.On("Utterance", mock.Anything, input).
			Return(model.Utterance{}, fmt.Errorf("probe: %w", audio.ErrUnsupportedFormat))

		b := &Bot{pipeline: pipe, decoder: dec}
		reply, err := b.process(context.Background(), input)

		assert.ErrorIs(t, err, audio.ErrUnsupportedFormat)
		assert.Equal(t, "Не удалось прочитать аудио", reply)
		pipe.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})

	t.Run("recognition failure", func(t *testing.T) {
		dec := new(MockDecoder)
		pipe := new(MockPipeline)
		dec.On("Utterance", mock.Anything, input).Return(utterance, nil)
		pipe.On("Handle", mock.Anything, utterance).
			Return(nil, fmt.Errorf("%w: speechkit: timeout", recognizer.ErrRecognition))

		b := &Bot{pipeline: pipe, decoder: dec}
		reply, err := b.process(context.Background(), input)

		assert.ErrorIs(t, err, recognizer.ErrRecognition)
		assert.Equal(t, "Не удалось распознать речь, попробуйте ещё раз", reply)
	})
}

func TestFormatResult(t *testing.T) {
	t.Run("unknown", func(t *testing.T) {
		reply := formatResult(&model.Result{Text: "привет", Intent: model.IntentUnknown})
		assert.Contains(t, reply, "Команда не распознана: «привет»")
	})

	t.Run("fields sorted", func(t *testing.T) {
		reply := formatResult(&model.Result{
			Text:   "добавь молоко количество 5 по цене 80",
			Intent: model.IntentAddPosition,
			Fields: model.Fields{"quantity": 5, "item": "молоко", "price": 80},
		})
		assert.Equal(t,
			"Команда: AddPosition\nТекст: добавь молоко количество 5 по цене 80\nitem: молоко\nprice: 80\nquantity: 5",
			reply)
	})
}
