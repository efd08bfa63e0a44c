// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vhdupload_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/juju/errors"

	"github.com/juju/azsm/vhd"
	"github.com/juju/azsm/vhdupload"
)

type fakeFactory struct {
	mu    sync.Mutex
	blobs map[string]*fakeBlob
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{blobs: make(map[string]*fakeBlob)}
}

func (f *fakeFactory) blob(uri string) *fakeBlob {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blobs[uri]
	if !ok {
		b = &fakeBlob{factory: f}
		f.blobs[uri] = b
	}
	return b
}

func (f *fakeFactory) PageBlob(_ context.Context, uri vhdupload.BlobURI) (vhdupload.PageBlob, error) {
	return f.blob(uri.WithoutQuery()), nil
}

type fakeBlob struct {
	factory *fakeFactory

	mu         sync.Mutex
	exists     bool
	data       []byte
	pages      []vhd.Range
	metadata   map[string]string
	md5        []byte
	failWrites int
	writes     []vhd.Range
	deleted    bool
	copiedFrom string

	// writeDelay is how long each UploadPages call takes.
	writeDelay time.Duration

	activeMu sync.Mutex
	active   int
	peak     int
}

func (b *fakeBlob) enterWrite() {
	b.activeMu.Lock()
	defer b.activeMu.Unlock()
	b.active++
	b.peak = max(b.peak, b.active)
}

func (b *fakeBlob) leaveWrite() {
	b.activeMu.Lock()
	defer b.activeMu.Unlock()
	b.active--
}

func (b *fakeBlob) peakWrites() int {
	b.activeMu.Lock()
	defer b.activeMu.Unlock()
	return b.peak
}

func (b *fakeBlob) Properties(context.Context) (vhdupload.BlobProperties, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.exists {
		return vhdupload.BlobProperties{}, errors.NotFoundf("blob")
	}
	metadata := make(map[string]string)
	for k, v := range b.metadata {
		metadata[k] = v
	}
	return vhdupload.BlobProperties{
		Size:       int64(len(b.data)),
		Metadata:   metadata,
		ContentMD5: b.md5,
		CopyStatus: vhdupload.CopySuccess,
	}, nil
}

func (b *fakeBlob) Create(_ context.Context, size int64, metadata map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exists = true
	b.data = make([]byte, size)
	b.pages = nil
	b.metadata = metadata
	return nil
}

func (b *fakeBlob) Delete(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exists = false
	b.deleted = true
	b.data = nil
	b.pages = nil
	b.metadata = nil
	return nil
}

func (b *fakeBlob) StartCopy(_ context.Context, source string) error {
	src := b.factory.blob(source)
	src.mu.Lock()
	data := append([]byte{}, src.data...)
	pages := append([]vhd.Range{}, src.pages...)
	md5 := src.md5
	src.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.exists = true
	b.copiedFrom = source
	b.data = data
	b.pages = pages
	b.md5 = md5
	b.metadata = nil
	return nil
}

func (b *fakeBlob) PageRanges(context.Context) ([]vhd.Range, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]vhd.Range{}, b.pages...), nil
}

func (b *fakeBlob) UploadPages(_ context.Context, offset int64, data []byte) error {
	b.enterWrite()
	defer b.leaveWrite()
	time.Sleep(b.writeDelay)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWrites > 0 {
		b.failWrites--
		return errors.New("server busy")
	}
	if offset%vhd.SectorSize != 0 || len(data)%vhd.SectorSize != 0 {
		return errors.NotValidf("unaligned write")
	}
	if len(data) > vhdupload.MaxChunkSize {
		return errors.NotValidf("write of %d bytes", len(data))
	}
	copy(b.data[offset:], data)
	r := vhd.Range{Offset: offset, Length: int64(len(data))}
	b.writes = append(b.writes, r)
	b.pages = append(b.pages, r)
	sort.Slice(b.pages, func(i, j int) bool { return b.pages[i].Offset < b.pages[j].Offset })
	return nil
}

func (b *fakeBlob) SetMetadata(_ context.Context, metadata map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metadata = metadata
	return nil
}

func (b *fakeBlob) SetContentMD5(_ context.Context, md5 []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.md5 = md5
	return nil
}

func (b *fakeBlob) sortedWrites() []vhd.Range {
	b.mu.Lock()
	defer b.mu.Unlock()
	writes := append([]vhd.Range{}, b.writes...)
	sort.Slice(writes, func(i, j int) bool { return writes[i].Offset < writes[j].Offset })
	return writes
}
