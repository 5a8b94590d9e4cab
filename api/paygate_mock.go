package api

import (
	"context"
	"fmt"
	"sync"
)

type PaymentGatewayMock struct {
	lock sync.Mutex

	InitializedPayments []InitializePaymentRequest
	InitializeErr       error

	VerifyResponses map[string][]byte
}

func (m *PaymentGatewayMock) Initialize(ctx context.Context, req InitializePaymentRequest) (InitializePaymentResponse, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.InitializeErr != nil {
		return InitializePaymentResponse{}, m.InitializeErr
	}

	m.InitializedPayments = append(m.InitializedPayments, req)
	return InitializePaymentResponse{
		TransactionID: "mock-tx-" + req.Reference,
		CheckoutURL:   "https://gateway.example.com/checkout/" + req.Reference,
		Raw:           []byte(`{"status":"initiated"}`),
	}, nil
}

func (m *PaymentGatewayMock) Verify(ctx context.Context, reference string) ([]byte, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	resp, ok := m.VerifyResponses[reference]
	if !ok {
		return nil, fmt.Errorf("no verify response stubbed for reference %s", reference)
	}
	return resp, nil
}
