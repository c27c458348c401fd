package grpc_annotator

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib"
)

const (
	annotateMethod       = "/infection.Annotator/Annotate"
	annotateStreamMethod = "/infection.Annotator/AnnotateStream"
)

// AnnotateRequest carries one parsed document as produced by the NLP pipeline.
type AnnotateRequest struct {
	Document json.RawMessage     `json:"document"`
	Options  lib.AnnotateOptions `json:"options"`
}

type AnnotatorServer interface {
	Annotate(context.Context, *AnnotateRequest) (*lib.APIAnnotation, error)
	AnnotateStream(Annotator_AnnotateStreamServer) error
}

type Annotator_AnnotateStreamServer interface {
	Send(*lib.APIAnnotation) error
	Recv() (*AnnotateRequest, error)
	grpc.ServerStream
}

type annotatorAnnotateStreamServer struct {
	grpc.ServerStream
}

func (x *annotatorAnnotateStreamServer) Send(m *lib.APIAnnotation) error {
	return x.ServerStream.SendMsg(m)
}

func (x *annotatorAnnotateStreamServer) Recv() (*AnnotateRequest, error) {
	m := new(AnnotateRequest)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func _Annotator_Annotate_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AnnotateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AnnotatorServer).Annotate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: annotateMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AnnotatorServer).Annotate(ctx, req.(*AnnotateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Annotator_AnnotateStream_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(AnnotatorServer).AnnotateStream(&annotatorAnnotateStreamServer{stream})
}

// Annotator_ServiceDesc describes the infection.Annotator service. Messages
// are JSON encoded, see CodecName.
var Annotator_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "infection.Annotator",
	HandlerType: (*AnnotatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Annotate",
			Handler:    _Annotator_Annotate_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "AnnotateStream",
			Handler:       _Annotator_AnnotateStream_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "infection/annotator",
}

func RegisterAnnotatorServer(s grpc.ServiceRegistrar, srv AnnotatorServer) {
	s.RegisterService(&Annotator_ServiceDesc, srv)
}

type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *Client) Annotate(ctx context.Context, in *AnnotateRequest, opts ...grpc.CallOption) (*lib.APIAnnotation, error) {
	out := new(lib.APIAnnotation)
	if err := c.cc.Invoke(ctx, annotateMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

type Annotator_AnnotateStreamClient interface {
	Send(*AnnotateRequest) error
	Recv() (*lib.APIAnnotation, error)
	grpc.ClientStream
}

func (c *Client) AnnotateStream(ctx context.Context, opts ...grpc.CallOption) (Annotator_AnnotateStreamClient, error) {
	stream, err := c.cc.NewStream(ctx, &Annotator_ServiceDesc.Streams[0], annotateStreamMethod, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return &annotatorAnnotateStreamClient{stream}, nil
}

type annotatorAnnotateStreamClient struct {
	grpc.ClientStream
}

func (x *annotatorAnnotateStreamClient) Send(m *AnnotateRequest) error {
	return x.ClientStream.SendMsg(m)
}

func (x *annotatorAnnotateStreamClient) Recv() (*lib.APIAnnotation, error) {
	m := new(lib.APIAnnotation)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
