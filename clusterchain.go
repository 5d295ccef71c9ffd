package gofat

import (
	"github.com/nilsbr/gofat/internal/blockdev"
)

// clusterChain is the variable-length extent of clusters backing a
// file's or directory's bytes.
type clusterChain struct {
	device      blockdev.Device
	fat         *FAT
	clusterSize uint32
	filesOffset int64

	start uint32 // 0 when empty
}

func newClusterChain(device blockdev.Device, fat *FAT, clusterSize uint32, filesOffset int64, start uint32) *clusterChain {
	return &clusterChain{
		device:      device,
		fat:         fat,
		clusterSize: clusterSize,
		filesOffset: filesOffset,
		start:       start,
	}
}

// deviceOffset computes the device byte offset for (cluster, intraOffset).
func (c *clusterChain) deviceOffset(cluster uint32, intraOffset uint32) int64 {
	return c.filesOffset + int64(cluster-firstDataClusterIndex)*int64(c.clusterSize) + int64(intraOffset)
}

// chain returns the ordered list of clusters currently in the chain.
func (c *clusterChain) chain() ([]uint32, error) {
	if c.start == 0 {
		return nil, nil
	}
	return c.fat.getChain(c.start)
}

// getLengthOnDisk is chain length * cluster size, 0 if empty.
func (c *clusterChain) getLengthOnDisk() (uint32, error) {
	ch, err := c.chain()
	if err != nil {
		return 0, err
	}
	return uint32(len(ch)) * c.clusterSize, nil
}

// getChainLength returns the number of clusters currently in the chain.
func (c *clusterChain) getChainLength() (int, error) {
	ch, err := c.chain()
	if err != nil {
		return 0, err
	}
	return len(ch), nil
}

// setChainLength grows or shrinks the chain to exactly n clusters. From
// empty it allocates n; otherwise it grows via allocAppend or shrinks by
// EOF-marking the new tail and freeing the rest. A failure partway
// through a grow leaves the chain at its prior length, not partially
// extended.
func (c *clusterChain) setChainLength(n int) error {
	ch, err := c.chain()
	if err != nil {
		return err
	}

	switch {
	case n == len(ch):
		return nil
	case len(ch) == 0 && n > 0:
		newChain, err := c.fat.allocNewChain(n)
		if err != nil {
			return err
		}
		c.start = newChain[0]
		return nil
	case n == 0:
		c.fat.freeChain(ch)
		c.start = 0
		return nil
	case n > len(ch):
		oldTail := ch[len(ch)-1]
		tail := oldTail
		var appended []uint32
		for i := len(ch); i < n; i++ {
			next, err := c.fat.allocAppend(tail)
			if err != nil {
				for _, a := range appended {
					c.fat.setFree(a)
				}
				c.fat.setEof(oldTail)
				return err
			}
			appended = append(appended, next)
			tail = next
		}
		return nil
	default: // n < len(ch), shrink
		newTail := ch[n-1]
		toFree := ch[n:]
		c.fat.setEof(newTail)
		c.fat.freeChain(toFree)
		return nil
	}
}

// setSize grows/shrinks the chain to exactly hold byteLen bytes.
func (c *clusterChain) setSize(byteLen uint32) error {
	n := 0
	if byteLen > 0 {
		n = int((byteLen + c.clusterSize - 1) / c.clusterSize)
	}
	return c.setChainLength(n)
}

// readData reads len(dst) bytes starting at offset. Reading from an empty
// chain with len(dst) > 0 fails with ErrEndOfData.
func (c *clusterChain) readData(offset uint32, dst []byte) error {
	if len(dst) == 0 {
		return nil
	}
	ch, err := c.chain()
	if err != nil {
		return err
	}
	if len(ch) == 0 {
		return ErrEndOfData
	}

	startCluster := int(offset / c.clusterSize)
	if startCluster >= len(ch) {
		return ErrEndOfData
	}

	remaining := dst
	pos := offset
	idx := startCluster
	for len(remaining) > 0 {
		if idx >= len(ch) {
			return ErrEndOfData
		}
		intra := pos % c.clusterSize
		n := c.clusterSize - intra
		if uint32(len(remaining)) < n {
			n = uint32(len(remaining))
		}

		off := c.deviceOffset(ch[idx], intra)
		if _, err := c.device.ReadAt(off, remaining[:n]); err != nil {
			return err
		}

		remaining = remaining[n:]
		pos += n
		idx++
	}
	return nil
}

// writeData writes len(src) bytes starting at offset, growing the chain
// automatically via setSize(offset+len) if needed. Writing zero bytes is
// a no-op.
func (c *clusterChain) writeData(offset uint32, src []byte) error {
	if len(src) == 0 {
		return nil
	}

	needed := offset + uint32(len(src))
	onDisk, err := c.getLengthOnDisk()
	if err != nil {
		return err
	}
	if needed > onDisk {
		if err := c.setSize(needed); err != nil {
			return err
		}
	}

	ch, err := c.chain()
	if err != nil {
		return err
	}

	remaining := src
	pos := offset
	idx := int(offset / c.clusterSize)
	for len(remaining) > 0 {
		if idx >= len(ch) {
			return ErrEndOfData
		}
		intra := pos % c.clusterSize
		n := c.clusterSize - intra
		if uint32(len(remaining)) < n {
			n = uint32(len(remaining))
		}

		off := c.deviceOffset(ch[idx], intra)
		if _, err := c.device.WriteAt(off, remaining[:n]); err != nil {
			return err
		}

		remaining = remaining[n:]
		pos += n
		idx++
	}
	return nil
}
