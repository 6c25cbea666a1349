package trading

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPCBalanceSource reads live SOL balances from a Solana RPC node.
type RPCBalanceSource struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
}

// NewRPCBalanceSource creates a BalanceSource against the given RPC endpoint.
func NewRPCBalanceSource(endpoint, commitment string) *RPCBalanceSource {
	return &RPCBalanceSource{
		client:     rpc.New(endpoint),
		commitment: rpc.CommitmentType(commitment),
	}
}

// Balance returns the SOL balance of address.
func (s *RPCBalanceSource) Balance(ctx context.Context, address string) (float64, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, fmt.Errorf("invalid address: %w", err)
	}

	out, err := s.client.GetBalance(ctx, pubkey, s.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return float64(out.Value) / float64(solana.LAMPORTS_PER_SOL), nil
}
