package nft

import (
	"context"
	"errors"
	"log"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
)

// WatchMinted streams NewEpicNFTMinted events into sink until the returned
// subscription is cancelled. Transports without notifications (plain HTTP)
// are served by polling eth_getLogs.
func (c *EpicNFT) WatchMinted(ctx context.Context, sink chan<- MintedEvent) (event.Subscription, error) {
	logs, sub, err := c.contract.WatchLogs(&bind.WatchOpts{Context: ctx}, MintedEventName)
	if err != nil {
		if errors.Is(err, rpc.ErrNotificationsUnsupported) {
			log.Printf("[nft] Transport cannot subscribe, polling logs every %v", c.pollInterval)
			return c.pollMinted(ctx, sink), nil
		}
		return nil, err
	}

	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case l := <-logs:
				if l.Removed {
					log.Printf("[nft] Ignoring reorged-out log %s", l.TxHash.Hex())
					continue
				}
				ev, err := c.UnpackMinted(l)
				if err != nil {
					log.Printf("[nft] Dropping undecodable log %s: %v", l.TxHash.Hex(), err)
					continue
				}
				select {
				case sink <- ev:
				case err := <-sub.Err():
					return err
				case <-quit:
					return nil
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}

func (c *EpicNFT) pollMinted(ctx context.Context, sink chan<- MintedEvent) event.Subscription {
	eventID := c.abi.Events[MintedEventName].ID

	return event.NewSubscription(func(quit <-chan struct{}) error {
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		// Only events after the subscription started are delivered.
		var next uint64
		started := false
		if head, err := c.backend.BlockNumber(ctx); err == nil {
			next, started = head+1, true
		} else {
			log.Printf("[nft] Poll: failed to read head: %v", err)
		}

		for {
			select {
			case <-quit:
				return nil
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}

			head, err := c.backend.BlockNumber(ctx)
			if err != nil {
				log.Printf("[nft] Poll: failed to read head: %v", err)
				continue
			}
			if !started {
				next, started = head+1, true
				continue
			}
			if head < next {
				continue
			}

			logs, err := c.backend.FilterLogs(ctx, ethereum.FilterQuery{
				FromBlock: new(big.Int).SetUint64(next),
				ToBlock:   new(big.Int).SetUint64(head),
				Addresses: []common.Address{c.address},
				Topics:    [][]common.Hash{{eventID}},
			})
			if err != nil {
				log.Printf("[nft] Poll: eth_getLogs %d..%d failed: %v", next, head, err)
				continue
			}
			next = head + 1

			for _, l := range logs {
				if err := c.deliver(l, sink, quit); err != nil {
					return nil
				}
			}
		}
	})
}

var errQuit = errors.New("quit")

func (c *EpicNFT) deliver(l types.Log, sink chan<- MintedEvent, quit <-chan struct{}) error {
	if l.Removed {
		return nil
	}
	ev, err := c.UnpackMinted(l)
	if err != nil {
		log.Printf("[nft] Dropping undecodable log %s: %v", l.TxHash.Hex(), err)
		return nil
	}
	select {
	case sink <- ev:
		return nil
	case <-quit:
		return errQuit
	}
}
