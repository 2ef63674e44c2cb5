package adapters

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"go-orders/internal/orders/ports"
	"go-orders/pkg/config"
	grpcpkg "go-orders/pkg/grpc"
	"go-orders/pkg/tls"
)

// getContactMethod is the full gRPC method name on the customers service
const getContactMethod = "/customers.v1.CustomerService/GetContact"

// GRPCCustomerDirectory implements CustomerDirectory using gRPC
type GRPCCustomerDirectory struct {
	conn *grpc.ClientConn
}

// NewGRPCCustomerDirectory creates a new gRPC client for the customers service
func NewGRPCCustomerDirectory(cfg *config.Config) (*GRPCCustomerDirectory, error) {
	var opts []grpc.DialOption

	// Add client interceptor
	opts = append(opts, grpc.WithUnaryInterceptor(grpcpkg.UnaryClientInterceptor(cfg.GRPCTimeout)))

	// Configure TLS/mTLS
	if cfg.GRPCMTLSEnabled {
		tlsConfig, err := tls.ClientConfig(
			cfg.GRPCClientCert,
			cfg.GRPCClientKey,
			cfg.TLSCAFile,
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.Dial(cfg.CustomersGRPCAddr, opts...)
	if err != nil {
		return nil, err
	}

	return &GRPCCustomerDirectory{conn: conn}, nil
}

// GetContact retrieves a customer's contact snapshot via gRPC
func (c *GRPCCustomerDirectory) GetContact(ctx context.Context, principalID string) (*ports.ContactInfo, error) {
	req, err := structpb.NewStruct(map[string]interface{}{
		"principal_id": principalID,
	})
	if err != nil {
		return nil, err
	}

	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, getContactMethod, req, resp); err != nil {
		return nil, err
	}

	fields := resp.GetFields()
	return &ports.ContactInfo{
		PrincipalID: principalID,
		Name:        fields["name"].GetStringValue(),
		Email:       fields["email"].GetStringValue(),
		Phone:       fields["phone"].GetStringValue(),
	}, nil
}

// Close closes the gRPC connection
func (c *GRPCCustomerDirectory) Close() error {
	return c.conn.Close()
}
