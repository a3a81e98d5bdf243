package kvm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMmapDemandLoadsFileContent(t *testing.T) {
	as, _, _ := newTestAddressSpace(4)
	file := newMemFile([]byte("hello world"))
	const addr VPage = 0x5000

	n, err := as.Mmap(addr, 11, true, file, 0)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	err = as.HandleFault(FaultInput{VA: addr, FromUserMode: true, NotPresent: true})
	require.NoError(t, err)

	spe, ok := as.Lookup(addr)
	require.True(t, ok)
	require.Equal(t, "hello world", string(spe.Frame().Data()[:11]))
	for _, b := range spe.Frame().Data()[11:] {
		require.Zero(t, b)
	}
}

func TestMmapSpansMultiplePages(t *testing.T) {
	as, _, _ := newTestAddressSpace(4)
	content := make([]byte, PageSize+100)
	for i := range content {
		content[i] = byte(i)
	}
	file := newMemFile(content)
	const addr VPage = 0x6000

	n, err := as.Mmap(addr, len(content), true, file, 0)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	first, ok := as.Lookup(addr)
	require.True(t, ok)
	require.Equal(t, 2, first.pageCount)

	second, ok := as.Lookup(VPage(uintptr(addr) + PageSize))
	require.True(t, ok)
	require.Equal(t, FileBacked, second.targetType)
}

func TestMunmapWritesBackDirtyPageButNotZeroTail(t *testing.T) {
	as, mmu, _ := newTestAddressSpace(4)
	file := newMemFile([]byte("hello world"))
	const addr VPage = 0x7000

	_, err := as.Mmap(addr, 11, true, file, 0)
	require.NoError(t, err)
	require.NoError(t, as.HandleFault(FaultInput{VA: addr, FromUserMode: true, NotPresent: true}))

	spe, _ := as.Lookup(addr)
	copy(spe.Frame().Data(), []byte("HELLO"))
	mmu.MarkDirty(ProcID(1), addr)

	require.NoError(t, as.Munmap(addr))

	require.Equal(t, "HELLO world", string(*file.data))
	_, stillMapped := as.Lookup(addr)
	require.False(t, stillMapped)
	_, stillInMMU := mmu.Lookup(ProcID(1), addr)
	require.False(t, stillInMMU)
}

func TestMmapZeroTailIsZeroedEvenOnRecycledFrame(t *testing.T) {
	as, _, _ := newTestAddressSpace(1)

	// Claim one anon page first and fill its frame with non-zero bytes,
	// then force that frame to be evicted and recycled for the mmap page
	// below by giving the allocator no spare capacity.
	require.NoError(t, as.AllocPageWithInitializer(Anon, 0x9000, true, AnonInitializer(), nil))
	_, err := as.Claim(0x9000)
	require.NoError(t, err)
	spoiler, ok := as.Lookup(0x9000)
	require.True(t, ok)
	for i := range spoiler.Frame().Data() {
		spoiler.Frame().Data()[i] = 0xFF
	}

	file := newMemFile([]byte("hi"))
	const addr VPage = 0xA000
	_, err = as.Mmap(addr, 2, true, file, 0)
	require.NoError(t, err)
	require.NoError(t, as.HandleFault(FaultInput{VA: addr, FromUserMode: true, NotPresent: true}))

	spe, ok := as.Lookup(addr)
	require.True(t, ok)
	require.Equal(t, "hi", string(spe.Frame().Data()[:2]))
	for _, b := range spe.Frame().Data()[2:] {
		require.Zero(t, b)
	}
}

func TestMunmapSkipsWritebackWhenNotDirty(t *testing.T) {
	as, _, _ := newTestAddressSpace(4)
	file := newMemFile([]byte("hello world"))
	const addr VPage = 0x8000

	_, err := as.Mmap(addr, 11, true, file, 0)
	require.NoError(t, err)
	require.NoError(t, as.HandleFault(FaultInput{VA: addr, FromUserMode: true, NotPresent: true}))

	spe, _ := as.Lookup(addr)
	copy(spe.Frame().Data(), []byte("MUTATE"))

	require.NoError(t, as.Munmap(addr))
	require.Equal(t, "hello world", string(*file.data))
}
