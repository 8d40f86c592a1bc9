// Package services implements the gRPC annotation service.
package services

import (
	"context"

	"google.golang.org/grpc"

	"github.com/turtacn/KeyIP-Depict/internal/application/depict"
	depictgrpc "github.com/turtacn/KeyIP-Depict/internal/interfaces/grpc"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	dto "github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

// DepictServiceName is the fully-qualified gRPC service name.
const DepictServiceName = "depict.v1.DepictService"

const (
	methodAnnotate = "/" + DepictServiceName + "/Annotate"
	methodOptions  = "/" + DepictServiceName + "/Options"
	methodGetJob   = "/" + DepictServiceName + "/GetJob"
	methodListJobs = "/" + DepictServiceName + "/ListJobs"
)

// OptionsRequest is empty.
type OptionsRequest struct{}

// GetJobRequest names one job.
type GetJobRequest struct {
	JobID string `json:"job_id"`
}

// ListJobsRequest filters the ledger.  An empty status lists every job.
type ListJobsRequest struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// DepictServer is the server API of DepictService.
type DepictServer interface {
	Annotate(context.Context, *dto.AnnotateRequest) (*dto.AnnotateResponse, error)
	Options(context.Context, *OptionsRequest) (*dto.OptionsResponse, error)
	GetJob(context.Context, *GetJobRequest) (*dto.JobInfo, error)
	ListJobs(context.Context, *ListJobsRequest) (*dto.JobList, error)
}

// DepictServiceDesc describes DepictService for grpc.Server.RegisterService.
var DepictServiceDesc = grpc.ServiceDesc{
	ServiceName: DepictServiceName,
	HandlerType: (*DepictServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Annotate", Handler: annotateHandler},
		{MethodName: "Options", Handler: optionsHandler},
		{MethodName: "GetJob", Handler: getJobHandler},
		{MethodName: "ListJobs", Handler: listJobsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "depict/v1/depict",
}

// ─────────────────────────────────────────────────────────────────────────────
// Method handlers
// ─────────────────────────────────────────────────────────────────────────────

func annotateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(dto.AnnotateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DepictServer).Annotate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAnnotate}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DepictServer).Annotate(ctx, req.(*dto.AnnotateRequest))
	})
}

func optionsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(OptionsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DepictServer).Options(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodOptions}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DepictServer).Options(ctx, req.(*OptionsRequest))
	})
}

func getJobHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetJobRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DepictServer).GetJob(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetJob}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DepictServer).GetJob(ctx, req.(*GetJobRequest))
	})
}

func listJobsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListJobsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DepictServer).ListJobs(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListJobs}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DepictServer).ListJobs(ctx, req.(*ListJobsRequest))
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Server implementation
// ─────────────────────────────────────────────────────────────────────────────

type depictServer struct {
	annotator depict.Service
	jobs      depict.JobQueryService
}

// NewDepictServer serves annotator and, when jobs is non-nil, the job ledger.
func NewDepictServer(annotator depict.Service, jobs depict.JobQueryService) DepictServer {
	return &depictServer{annotator: annotator, jobs: jobs}
}

func (s *depictServer) Annotate(ctx context.Context, req *dto.AnnotateRequest) (*dto.AnnotateResponse, error) {
	return s.annotator.Annotate(ctx, req)
}

func (s *depictServer) Options(ctx context.Context, _ *OptionsRequest) (*dto.OptionsResponse, error) {
	return s.annotator.Options(ctx), nil
}

func (s *depictServer) GetJob(ctx context.Context, req *GetJobRequest) (*dto.JobInfo, error) {
	if s.jobs == nil {
		return nil, errNoLedger
	}
	return s.jobs.GetJob(ctx, req.JobID)
}

func (s *depictServer) ListJobs(ctx context.Context, req *ListJobsRequest) (*dto.JobList, error) {
	if s.jobs == nil {
		return nil, errNoLedger
	}
	return s.jobs.ListJobs(ctx, req.Status, req.Limit)
}

var errNoLedger = errors.New(errors.ErrCodeNotImplemented, "job ledger is not configured")

// ─────────────────────────────────────────────────────────────────────────────
// Client
// ─────────────────────────────────────────────────────────────────────────────

// DepictClient calls DepictService.  Errors come back as *errors.AppError.
type DepictClient struct {
	cc grpc.ClientConnInterface
}

// NewDepictClient wraps an established connection.
func NewDepictClient(cc grpc.ClientConnInterface) *DepictClient {
	return &DepictClient{cc: cc}
}

func (c *DepictClient) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(depictgrpc.JSONCodecName)}, opts...)
	return depictgrpc.FromError(c.cc.Invoke(ctx, method, in, out, opts...))
}

// Annotate runs the pipeline on req.
func (c *DepictClient) Annotate(ctx context.Context, req *dto.AnnotateRequest, opts ...grpc.CallOption) (*dto.AnnotateResponse, error) {
	out := new(dto.AnnotateResponse)
	if err := c.invoke(ctx, methodAnnotate, req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// Options lists the accepted option values and server defaults.
func (c *DepictClient) Options(ctx context.Context, opts ...grpc.CallOption) (*dto.OptionsResponse, error) {
	out := new(dto.OptionsResponse)
	if err := c.invoke(ctx, methodOptions, &OptionsRequest{}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// GetJob reads one ledger entry.
func (c *DepictClient) GetJob(ctx context.Context, jobID string, opts ...grpc.CallOption) (*dto.JobInfo, error) {
	out := new(dto.JobInfo)
	if err := c.invoke(ctx, methodGetJob, &GetJobRequest{JobID: jobID}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// ListJobs lists ledger entries, most recently updated first.
func (c *DepictClient) ListJobs(ctx context.Context, status string, limit int, opts ...grpc.CallOption) (*dto.JobList, error) {
	out := new(dto.JobList)
	if err := c.invoke(ctx, methodListJobs, &ListJobsRequest{Status: status, Limit: limit}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

//Personal.AI order the ending
