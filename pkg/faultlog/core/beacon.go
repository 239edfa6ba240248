package core

import (
	"strconv"
	"time"

	"github.com/ReneKroon/ttlcache"
	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
)

// Sends the liveness signal of a running replica to its peers.
// A peer receives at most one beacon for each interval, the sent
// beacons are tracked on a cache where the entries expire after
// the interval, then a new beacon can be sent.
type beacons struct {
	transport Transport

	peers []types.ProcessID

	// Peers that already received a beacon in the current interval.
	sent *ttlcache.Cache

	log types.Logger
}

func newBeacons(transport Transport, peers []types.ProcessID, interval time.Duration, log types.Logger) *beacons {
	cache := ttlcache.NewCache()
	cache.SetTTL(interval)
	cache.SkipTtlExtensionOnHit(true)
	return &beacons{
		transport: transport,
		peers:     peers,
		sent:      cache,
		log:       log,
	}
}

// Emit a beacon to every peer that did not receive one in the
// current interval.
func (b *beacons) emit() {
	for _, peer := range b.peers {
		key := strconv.Itoa(int(peer))
		if _, ok := b.sent.Get(key); ok {
			continue
		}

		if err := b.transport.Send(types.NewBeaconMessage(b.transport.LocalID(), peer)); err != nil {
			b.log.Debugf("failed sending beacon to %d. %v", peer, err)
		}
		b.sent.Set(key, struct{}{})
	}
}

// Forget the sent beacons, so the next emit reaches every peer.
func (b *beacons) reset() {
	b.sent.Purge()
}

func (b *beacons) close() {
	b.sent.Close()
}
