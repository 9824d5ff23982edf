package kafka

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProducer_PublishJSON(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got map[string]interface{}
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got["reference"] != "R9" {
			return errors.New("unexpected payload")
		}
		return nil
	})
	p := NewProducerFrom(sp, zap.NewNop())

	err := p.PublishJSON("inventory.shortfall", "R9", map[string]interface{}{"reference": "R9"})

	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestProducer_PublishJSONError(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	p := NewProducerFrom(sp, zap.NewNop())

	err := p.PublishJSON("inventory.shortfall", "R9", map[string]string{"reference": "R9"})

	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}
