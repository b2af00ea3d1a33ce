package ses_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tech-artist89/mitra/pkg/mailer"
	sesmailer "github.com/tech-artist89/mitra/pkg/mailer/ses"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) SendRawEmail(ctx context.Context, in *ses.SendRawEmailInput, _ ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*ses.SendRawEmailOutput)
	return out, args.Error(1)
}

func (m *mockAPI) GetSendQuota(ctx context.Context, in *ses.GetSendQuotaInput, _ ...func(*ses.Options)) (*ses.GetSendQuotaOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*ses.GetSendQuotaOutput)
	return out, args.Error(1)
}

func testEmail() *mailer.Email {
	return &mailer.Email{
		To:      []string{"anna@example.de"},
		Subject: "Ihre Konfiguration",
		HTML:    "<p>Anbei</p>",
		Tags:    mailer.Tags{"kind": "configuration"},
	}
}

func TestSender_Send(t *testing.T) {
	t.Parallel()

	t.Run("sends raw mime", func(t *testing.T) {
		t.Parallel()

		api := &mockAPI{}
		api.On("SendRawEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendRawEmailInput) bool {
			raw := string(in.RawMessage.Data)
			return strings.Contains(raw, "From: info@mitra.example") &&
				strings.Contains(raw, "To: anna@example.de") &&
				aws.ToString(in.ConfigurationSetName) == "website" &&
				len(in.Tags) == 1
		})).Return(&ses.SendRawEmailOutput{MessageId: aws.String("0100018e-ses-id")}, nil).Once()

		s := sesmailer.NewWithClient(api, sesmailer.Config{From: "info@mitra.example", ConfigSet: "website"})
		receipt, err := s.Send(context.Background(), testEmail())
		require.NoError(t, err)
		require.Equal(t, "0100018e-ses-id", receipt.MessageID)
		api.AssertExpectations(t)
	})

	t.Run("api failure", func(t *testing.T) {
		t.Parallel()

		api := &mockAPI{}
		api.On("SendRawEmail", mock.Anything, mock.Anything).Return(nil, errors.New("MessageRejected")).Once()

		s := sesmailer.NewWithClient(api, sesmailer.Config{From: "info@mitra.example"})
		_, err := s.Send(context.Background(), testEmail())
		require.ErrorIs(t, err, mailer.ErrSendFailed)
	})

	t.Run("no sender configured", func(t *testing.T) {
		t.Parallel()

		api := &mockAPI{}
		s := sesmailer.NewWithClient(api, sesmailer.Config{})
		_, err := s.Send(context.Background(), testEmail())
		require.ErrorIs(t, err, mailer.ErrNoSender)
		api.AssertNotCalled(t, "SendRawEmail", mock.Anything, mock.Anything)
	})
}

func TestSender_Probe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		out     *ses.GetSendQuotaOutput
		err     error
		wantErr bool
	}{
		{"quota available", &ses.GetSendQuotaOutput{Max24HourSend: 200, SentLast24Hours: 10}, nil, false},
		{"quota exhausted", &ses.GetSendQuotaOutput{Max24HourSend: 200, SentLast24Hours: 200}, nil, true},
		{"credentials invalid", nil, errors.New("InvalidClientTokenId"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api := &mockAPI{}
			api.On("GetSendQuota", mock.Anything, mock.Anything).Return(tt.out, tt.err)

			err := sesmailer.NewWithClient(api, sesmailer.Config{}).Probe(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
