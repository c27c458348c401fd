package testhelpers

import (
	"github.com/stretchr/testify/mock"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/cache"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/cache/remote"
)

// RemoteClient is a mock remote.Client.
type RemoteClient struct {
	mock.Mock
}

func (_m *RemoteClient) NewGetPipeline(size int) remote.GetPipeline {
	ret := _m.Called(size)

	var r0 remote.GetPipeline
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(remote.GetPipeline)
	}
	return r0
}

func (_m *RemoteClient) NewSetPipeline(size int) remote.SetPipeline {
	ret := _m.Called(size)

	var r0 remote.SetPipeline
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(remote.SetPipeline)
	}
	return r0
}

func (_m *RemoteClient) Ready() bool {
	ret := _m.Called()
	return ret.Bool(0)
}

// GetPipeline is a mock remote.GetPipeline. ExecGet answers every queued
// digest from Results, nil when absent.
type GetPipeline struct {
	mock.Mock
	Results map[string]*cache.Entry
	queued  []string
}

func (_m *GetPipeline) Get(digest string) {
	_m.Called(digest)
	_m.queued = append(_m.queued, digest)
}

func (_m *GetPipeline) ExecGet(onResult func(string, *cache.Entry) error) error {
	ret := _m.Called()
	if err := ret.Error(0); err != nil {
		return err
	}
	for _, digest := range _m.queued {
		if err := onResult(digest, _m.Results[digest]); err != nil {
			return err
		}
	}
	return nil
}

func (_m *GetPipeline) Size() int {
	return len(_m.queued)
}

// SetPipeline is a mock remote.SetPipeline that keeps what was set.
type SetPipeline struct {
	mock.Mock
	Data map[string][]byte
}

func (_m *SetPipeline) Set(digest string, data []byte) {
	_m.Called(digest)
	if _m.Data == nil {
		_m.Data = map[string][]byte{}
	}
	_m.Data[digest] = data
}

func (_m *SetPipeline) ExecSet() error {
	ret := _m.Called()
	return ret.Error(0)
}

func (_m *SetPipeline) Size() int {
	return len(_m.Data)
}

// NewMockRemoteCache returns a remote client whose lookups find results and
// whose writes succeed.
func NewMockRemoteCache(results map[string]*cache.Entry) (*RemoteClient, *GetPipeline, *SetPipeline) {
	get := &GetPipeline{Results: results}
	get.On("Get", mock.AnythingOfType("string")).Return()
	get.On("ExecGet").Return(nil)

	set := &SetPipeline{}
	set.On("Set", mock.AnythingOfType("string")).Return()
	set.On("ExecSet").Return(nil)

	client := &RemoteClient{}
	client.On("NewGetPipeline", mock.AnythingOfType("int")).Return(get)
	client.On("NewSetPipeline", mock.AnythingOfType("int")).Return(set)
	client.On("Ready").Return(true)
	return client, get, set
}
