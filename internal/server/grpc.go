package server

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
	"github.com/worldbreakers/worldbreakers-server-go/internal/session"
)

// gameServer implements GameServiceServer on a session manager.
type gameServer struct {
	sessions *session.Manager
	logger   *zap.Logger
}

// NewGameServer creates the game service.
func NewGameServer(sessions *session.Manager, logger *zap.Logger) GameServiceServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gameServer{sessions: sessions, logger: logger}
}

// NewGRPCServer creates a grpc.Server with the game service and the
// recovery and logging interceptors installed.
func NewGRPCServer(sessions *session.Manager, logger *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.UnaryInterceptor(ChainUnaryInterceptors(
			RecoveryInterceptor(logger),
			LoggingInterceptor(logger),
		)),
		grpc.StreamInterceptor(RecoveryStreamInterceptor(logger)),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterGameServiceServer(s, NewGameServer(sessions, logger))
	return s
}

// CreateGame starts a game from a config.
func (s *gameServer) CreateGame(ctx context.Context, req *CreateGameRequest) (*CreateGameResponse, error) {
	id, err := s.sessions.Create(ctx, req.Config)
	if err != nil {
		return nil, toStatus(err)
	}
	return &CreateGameResponse{GameID: id}, nil
}

// SubmitAction applies a player's action.
func (s *gameServer) SubmitAction(ctx context.Context, req *SubmitActionRequest) (*SubmitActionResponse, error) {
	gameID, err := requireGameID(req.GameID)
	if err != nil {
		return nil, err
	}
	if !req.Action.Player.Valid() {
		return nil, status.Errorf(codes.InvalidArgument, "invalid player %q", req.Action.Player)
	}

	res, err := s.sessions.Submit(ctx, gameID, req.Action)
	if err != nil {
		s.logger.Debug("action rejected",
			zap.String("game_id", gameID),
			zap.String("player", string(req.Action.Player)),
			zap.String("action", string(req.Action.Action.Type)),
			zap.Error(err),
		)
		return nil, toStatus(err)
	}
	return &SubmitActionResponse{Result: *res}, nil
}

// GetView returns one player's view of a game.
func (s *gameServer) GetView(ctx context.Context, req *GetViewRequest) (*GetViewResponse, error) {
	gameID, err := requireGameID(req.GameID)
	if err != nil {
		return nil, err
	}
	v, err := s.sessions.View(gameID, req.Player)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetViewResponse{View: v}, nil
}

// LegalActions lists what a player may submit next.
func (s *gameServer) LegalActions(ctx context.Context, req *LegalActionsRequest) (*LegalActionsResponse, error) {
	gameID, err := requireGameID(req.GameID)
	if err != nil {
		return nil, err
	}
	actions, err := s.sessions.LegalActions(gameID, req.Player)
	if err != nil {
		return nil, toStatus(err)
	}
	return &LegalActionsResponse{Actions: actions}, nil
}

// LoadGame makes a stored game live.
func (s *gameServer) LoadGame(ctx context.Context, req *LoadGameRequest) (*LoadGameResponse, error) {
	gameID, err := requireGameID(req.GameID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Load(ctx, gameID); err != nil {
		return nil, toStatus(err)
	}
	state, err := s.sessions.State(gameID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &LoadGameResponse{Version: state.Version}, nil
}

// ListGames lists the live games.
func (s *gameServer) ListGames(ctx context.Context, req *ListGamesRequest) (*ListGamesResponse, error) {
	return &ListGamesResponse{GameIDs: s.sessions.Games()}, nil
}

// GetStats returns the per-player statistics of a live game.
func (s *gameServer) GetStats(ctx context.Context, req *GetStatsRequest) (*GetStatsResponse, error) {
	gameID, err := requireGameID(req.GameID)
	if err != nil {
		return nil, err
	}
	stats, err := s.sessions.Stats(gameID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetStatsResponse{Stats: stats}, nil
}

// WatchGame streams the player's view after every accepted action until the
// client goes away or the game ends.
func (s *gameServer) WatchGame(req *WatchGameRequest, stream GameService_WatchGameServer) error {
	gameID, err := requireGameID(req.GameID)
	if err != nil {
		return err
	}
	if !req.Player.Valid() {
		return status.Errorf(codes.InvalidArgument, "invalid player %q", req.Player)
	}

	// Subscribe before reading the first view so no update falls between.
	updates := make(chan []rules.Event, 16)
	handle := s.sessions.Bus().Subscribe(func(id string, events []rules.Event) {
		if id != gameID {
			return
		}
		select {
		case updates <- events:
		default:
			s.logger.Warn("dropping update for slow watcher", zap.String("game_id", gameID))
		}
	})
	defer s.sessions.Bus().Unsubscribe(handle)

	view, err := s.sessions.View(gameID, req.Player)
	if err != nil {
		return toStatus(err)
	}
	if err := stream.Send(&GameUpdate{View: view}); err != nil {
		return err
	}
	if view.Phase == rules.PhaseGameOver {
		return nil
	}

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case events := <-updates:
			v, err := s.sessions.View(gameID, req.Player)
			if err != nil {
				return toStatus(err)
			}
			if err := stream.Send(&GameUpdate{View: v, Events: events}); err != nil {
				return err
			}
			if v.Phase == rules.PhaseGameOver {
				return nil
			}
		}
	}
}

func requireGameID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", status.Errorf(codes.InvalidArgument, "game_id is required")
	}
	return id, nil
}

// toStatus maps session and engine errors onto gRPC status codes.
func toStatus(err error) error {
	var invalid *game.InvalidActionError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &invalid):
		return status.Error(codes.FailedPrecondition, invalid.Error())
	case errors.Is(err, session.ErrGameNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, session.ErrInvalidPlayer), errors.Is(err, session.ErrInvalidConfig):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, session.ErrTooManyGames):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
