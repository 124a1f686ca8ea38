package livekitx

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"

	contractx "github.com/voxline/voxline/agent/contract"
)

type Config struct {
	URL                string `envconfig:"URL" split_words:"true" required:"true"`
	APIKey             string `envconfig:"API_KEY" split_words:"true" required:"true"`
	APISecret          string `envconfig:"API_SECRET" split_words:"true" required:"true"`
	SIPOutboundTrunkID string `envconfig:"SIP_OUTBOUND_TRUNK_ID" split_words:"true"`
}

// Client bundles the three platform services the workflow touches: agent
// dispatch, SIP, and room lifecycle.
type Client struct {
	dispatch *lksdk.AgentDispatchClient
	sip      *lksdk.SIPClient
	room     *lksdk.RoomServiceClient
	trunkID  string
}

var _ contractx.CallPlatform = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	host := strings.TrimSpace(cfg.URL)
	if host == "" {
		return nil, errors.New("livekit url is required")
	}
	if _, err := url.Parse(host); err != nil {
		return nil, fmt.Errorf("invalid livekit url: %w", err)
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	apiSecret := strings.TrimSpace(cfg.APISecret)
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("livekit api key and secret are required")
	}

	return &Client{
		dispatch: lksdk.NewAgentDispatchServiceClient(host, apiKey, apiSecret),
		sip:      lksdk.NewSIPClient(host, apiKey, apiSecret),
		room:     lksdk.NewRoomServiceClient(host, apiKey, apiSecret),
		trunkID:  strings.TrimSpace(cfg.SIPOutboundTrunkID),
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// CreateDispatch binds a new call-agent job to the room before the callee is
// dialed, so the agent is already waiting when the call connects.
func (c *Client) CreateDispatch(ctx context.Context, agentName, room, metadata string) error {
	_, err := c.dispatch.CreateDispatch(ctx, &livekit.CreateAgentDispatchRequest{
		AgentName: agentName,
		Room:      room,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("%w: create dispatch for room=%s: %v", contractx.ErrJobCreation, room, err)
	}
	return nil
}

// DialSIP places the outbound leg and blocks until the call is answered or
// the platform reports failure. The trunk id is validated here, at the point
// of the first outbound attempt.
func (c *Client) DialSIP(ctx context.Context, room, number string) error {
	if c.trunkID == "" {
		return contractx.ErrMissingTrunk
	}

	_, err := c.sip.CreateSIPParticipant(ctx, &livekit.CreateSIPParticipantRequest{
		SipTrunkId:          c.trunkID,
		SipCallTo:           number,
		RoomName:            room,
		ParticipantIdentity: number,
		WaitUntilAnswered:   true,
	})
	if err != nil {
		return fmt.Errorf("%w: dial %s into room=%s: %v", contractx.ErrTelephonyLeg, number, room, err)
	}
	return nil
}

func (c *Client) DeleteRoom(ctx context.Context, room string) error {
	_, err := c.room.DeleteRoom(ctx, &livekit.DeleteRoomRequest{
		Room: room,
	})
	if err != nil {
		return fmt.Errorf("delete room=%s: %w", room, err)
	}
	return nil
}
