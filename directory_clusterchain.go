package gofat

// maxDirectoryEntries bounds a cluster-chain directory's on-disk size to
// 65536*32 bytes.
const maxDirectoryEntries = 65536

// clusterChainDirectoryStorage is the growable directory backed by a
// cluster chain. The FAT32 root directory uses this with isRoot=true
// and storageCluster 0; subdirectories report their chain's start
// cluster.
type clusterChainDirectoryStorage struct {
	chain  *clusterChain
	isRoot bool
	// clusterSize is duplicated from chain for changeSize's bytes
	// computation convenience.
	clusterSize uint32
}

func newClusterChainDirectoryStorage(chain *clusterChain, clusterSize uint32, isRoot bool) *clusterChainDirectoryStorage {
	return &clusterChainDirectoryStorage{chain: chain, clusterSize: clusterSize, isRoot: isRoot}
}

func (s *clusterChainDirectoryStorage) readAll() ([]byte, error) {
	onDisk, err := s.chain.getLengthOnDisk()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, onDisk)
	if err := s.chain.readData(0, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// writeAll writes the logical extent; if the chain's on-disk length
// exceeds the logical size (a round-up to cluster boundary), the
// remainder is zero-filled.
func (s *clusterChainDirectoryStorage) writeAll(buf []byte) error {
	onDisk, err := s.chain.getLengthOnDisk()
	if err != nil {
		return err
	}
	if uint32(len(buf)) > onDisk {
		if err := s.chain.setSize(uint32(len(buf))); err != nil {
			return err
		}
		onDisk, err = s.chain.getLengthOnDisk()
		if err != nil {
			return err
		}
	}

	padded := buf
	if onDisk > uint32(len(buf)) {
		padded = make([]byte, onDisk)
		copy(padded, buf)
	}
	return s.chain.writeData(0, padded)
}

func (s *clusterChainDirectoryStorage) getStorageCluster() uint32 {
	if s.isRoot {
		return 0
	}
	return s.chain.start
}

func (s *clusterChainDirectoryStorage) capacity() int {
	onDisk, err := s.chain.getLengthOnDisk()
	if err != nil {
		return 0
	}
	return int(onDisk / 32)
}

// changeSize computes bytes = max(n*32, clusterSize), fails with
// DirectoryFull if bytes exceeds the 65536*32 ceiling, otherwise resizes
// the chain.
//
// A request for 0 entries on an already-empty directory is a no-op
// rather than an error; callers always pass the real post-mutation
// entry count, which is greater than 0 for any directory that still
// has live entries.
func (s *clusterChainDirectoryStorage) changeSize(n int) error {
	if n > maxDirectoryEntries {
		return newDirectoryFullError(s.capacity(), n)
	}

	bytes := uint32(n) * 32
	if bytes < s.clusterSize {
		bytes = s.clusterSize
	}
	if bytes > maxDirectoryEntries*32 {
		return newDirectoryFullError(s.capacity(), n)
	}

	return s.chain.setSize(bytes)
}
