package server

import (
	"context"

	"google.golang.org/grpc"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/watchers"
	"github.com/worldbreakers/worldbreakers-server-go/internal/session"
)

const serviceName = "worldbreakers.v1.GameService"

type CreateGameRequest struct {
	Config game.GameConfig `json:"config"`
}

type CreateGameResponse struct {
	GameID string `json:"gameId"`
}

type SubmitActionRequest struct {
	GameID string            `json:"gameId"`
	Action game.PlayerAction `json:"action"`
}

type SubmitActionResponse struct {
	Result session.SubmitResult `json:"result"`
}

type GetViewRequest struct {
	GameID string         `json:"gameId"`
	Player rules.PlayerID `json:"player"`
}

type GetViewResponse struct {
	View *session.PlayerView `json:"view"`
}

type LegalActionsRequest struct {
	GameID string         `json:"gameId"`
	Player rules.PlayerID `json:"player"`
}

type LegalActionsResponse struct {
	Actions []game.PlayerAction `json:"actions"`
}

type LoadGameRequest struct {
	GameID string `json:"gameId"`
}

type LoadGameResponse struct {
	Version uint64 `json:"version"`
}

type ListGamesRequest struct{}

type ListGamesResponse struct {
	GameIDs []string `json:"gameIds"`
}

type GetStatsRequest struct {
	GameID string `json:"gameId"`
}

type GetStatsResponse struct {
	Stats watchers.Stats `json:"stats"`
}

type WatchGameRequest struct {
	GameID string         `json:"gameId"`
	Player rules.PlayerID `json:"player"`
}

// GameUpdate is streamed to watchers: the watcher's view after a batch of
// events. The first update of a stream carries no events.
type GameUpdate struct {
	View   *session.PlayerView `json:"view"`
	Events []rules.Event       `json:"events,omitempty"`
}

// GameServiceServer is the server API of the game service.
type GameServiceServer interface {
	CreateGame(context.Context, *CreateGameRequest) (*CreateGameResponse, error)
	SubmitAction(context.Context, *SubmitActionRequest) (*SubmitActionResponse, error)
	GetView(context.Context, *GetViewRequest) (*GetViewResponse, error)
	LegalActions(context.Context, *LegalActionsRequest) (*LegalActionsResponse, error)
	LoadGame(context.Context, *LoadGameRequest) (*LoadGameResponse, error)
	ListGames(context.Context, *ListGamesRequest) (*ListGamesResponse, error)
	GetStats(context.Context, *GetStatsRequest) (*GetStatsResponse, error)
	WatchGame(*WatchGameRequest, GameService_WatchGameServer) error
}

// GameService_WatchGameServer is the server side of a WatchGame stream.
type GameService_WatchGameServer interface {
	Send(*GameUpdate) error
	grpc.ServerStream
}

type watchGameServer struct {
	grpc.ServerStream
}

func (s *watchGameServer) Send(u *GameUpdate) error {
	return s.ServerStream.SendMsg(u)
}

// RegisterGameServiceServer registers srv on s.
func RegisterGameServiceServer(s grpc.ServiceRegistrar, srv GameServiceServer) {
	s.RegisterService(&GameServiceDesc, srv)
}

func unaryHandler[Req any, Resp any](method string, call func(GameServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	fullMethod := "/" + serviceName + "/" + method
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(GameServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(GameServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchGameHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(WatchGameRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(GameServiceServer).WatchGame(in, &watchGameServer{stream})
}

// GameServiceDesc describes the game service to grpc.
var GameServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*GameServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateGame", Handler: unaryHandler("CreateGame", GameServiceServer.CreateGame)},
		{MethodName: "SubmitAction", Handler: unaryHandler("SubmitAction", GameServiceServer.SubmitAction)},
		{MethodName: "GetView", Handler: unaryHandler("GetView", GameServiceServer.GetView)},
		{MethodName: "LegalActions", Handler: unaryHandler("LegalActions", GameServiceServer.LegalActions)},
		{MethodName: "LoadGame", Handler: unaryHandler("LoadGame", GameServiceServer.LoadGame)},
		{MethodName: "ListGames", Handler: unaryHandler("ListGames", GameServiceServer.ListGames)},
		{MethodName: "GetStats", Handler: unaryHandler("GetStats", GameServiceServer.GetStats)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchGame", Handler: watchGameHandler, ServerStreams: true},
	},
	Metadata: "worldbreakers/v1/game.json",
}

// GameServiceClient calls the game service over a JSON-codec connection.
type GameServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewGameServiceClient creates a client on cc.
func NewGameServiceClient(cc grpc.ClientConnInterface) *GameServiceClient {
	return &GameServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in interface{}, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GameServiceClient) CreateGame(ctx context.Context, in *CreateGameRequest, opts ...grpc.CallOption) (*CreateGameResponse, error) {
	return invoke[CreateGameResponse](ctx, c.cc, "CreateGame", in, opts)
}

func (c *GameServiceClient) SubmitAction(ctx context.Context, in *SubmitActionRequest, opts ...grpc.CallOption) (*SubmitActionResponse, error) {
	return invoke[SubmitActionResponse](ctx, c.cc, "SubmitAction", in, opts)
}

func (c *GameServiceClient) GetView(ctx context.Context, in *GetViewRequest, opts ...grpc.CallOption) (*GetViewResponse, error) {
	return invoke[GetViewResponse](ctx, c.cc, "GetView", in, opts)
}

func (c *GameServiceClient) LegalActions(ctx context.Context, in *LegalActionsRequest, opts ...grpc.CallOption) (*LegalActionsResponse, error) {
	return invoke[LegalActionsResponse](ctx, c.cc, "LegalActions", in, opts)
}

func (c *GameServiceClient) LoadGame(ctx context.Context, in *LoadGameRequest, opts ...grpc.CallOption) (*LoadGameResponse, error) {
	return invoke[LoadGameResponse](ctx, c.cc, "LoadGame", in, opts)
}

func (c *GameServiceClient) ListGames(ctx context.Context, in *ListGamesRequest, opts ...grpc.CallOption) (*ListGamesResponse, error) {
	return invoke[ListGamesResponse](ctx, c.cc, "ListGames", in, opts)
}

func (c *GameServiceClient) GetStats(ctx context.Context, in *GetStatsRequest, opts ...grpc.CallOption) (*GetStatsResponse, error) {
	return invoke[GetStatsResponse](ctx, c.cc, "GetStats", in, opts)
}

// WatchGameClient receives updates of a WatchGame stream.
type WatchGameClient struct {
	grpc.ClientStream
}

func (w *WatchGameClient) Recv() (*GameUpdate, error) {
	u := new(GameUpdate)
	if err := w.ClientStream.RecvMsg(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (c *GameServiceClient) WatchGame(ctx context.Context, in *WatchGameRequest, opts ...grpc.CallOption) (*WatchGameClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &GameServiceDesc.Streams[0], "/"+serviceName+"/WatchGame", opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &WatchGameClient{stream}, nil
}
