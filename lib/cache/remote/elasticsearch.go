package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v7"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/cache"
)

type ElasticsearchConfig struct {
	Host  string
	Port  int
	Index string
	// Addresses overrides Host and Port when set.
	Addresses []string
}

type esResponse struct {
	Took      int `json:"took"`
	Responses []struct {
		Took     int  `json:"took"`
		TimedOut bool `json:"timed_out"`
		Hits     struct {
			Hits []struct {
				Index  string      `json:"_index"`
				ID     string      `json:"_id"`
				Source cache.Entry `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
		Status int `json:"status"`
	} `json:"responses"`
}

type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
	} `json:"items"`
}

func NewElasticsearchClient(conf ElasticsearchConfig) (Client, error) {
	addresses := conf.Addresses
	if len(addresses) == 0 {
		addresses = []string{fmt.Sprintf("http://%s:%d", conf.Host, conf.Port)}
	}
	c, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
	})
	if err != nil {
		return nil, err
	}
	return &esClient{
		Client: c,
		index:  conf.Index,
	}, nil
}

type esClient struct {
	*elasticsearch.Client
	index string
}

func (e *esClient) Ready() bool {
	res, err := e.Info()
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return res.StatusCode == 200
}

func (e *esClient) NewGetPipeline(size int) GetPipeline {
	return &esPipeline{
		esClient: e,
		buf:      bytes.NewBuffer(nil),
		digests:  make([]string, 0, size),
	}
}

func (e *esClient) NewSetPipeline(size int) SetPipeline {
	return &esPipeline{
		esClient: e,
		buf:      bytes.NewBuffer(nil),
		digests:  make([]string, 0, size),
	}
}

// esPipeline buffers a bulk request (for sets) or a multi search (for gets).
// Documents are indexed under their digest so repeated sets overwrite.
type esPipeline struct {
	*esClient
	buf     *bytes.Buffer
	digests []string
}

func (p *esPipeline) Set(digest string, data []byte) {
	p.buf.WriteString(fmt.Sprintf(`{"index":{"_id":"%s"}}%s`, jsonEscape(digest), "\n"))
	p.buf.Write(bytes.TrimSpace(data))
	p.buf.WriteString("\n")
	p.digests = append(p.digests, digest)
}

func (p *esPipeline) ExecSet() error {
	if len(p.digests) == 0 {
		return nil
	}
	res, err := p.Bulk(p.buf, p.Bulk.WithIndex(p.index))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.New(res.String())
	}

	var bulk esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulk); err != nil {
		return err
	}
	if bulk.Errors {
		return fmt.Errorf("bulk index into %s failed for some documents", p.index)
	}
	return nil
}

func (p *esPipeline) Get(digest string) {
	p.buf.WriteString(fmt.Sprintf(`{}%s`, "\n"))
	p.buf.WriteString(fmt.Sprintf(`{"size": 1, "query": {"ids": {"values": ["%s"]}}}%s`, jsonEscape(digest), "\n"))
	p.digests = append(p.digests, digest)
}

func jsonEscape(i string) string {
	b, err := json.Marshal(i)
	if err != nil {
		panic(err)
	}
	s := string(b)
	return s[1 : len(s)-1]
}

func (p *esPipeline) ExecGet(onResult func(string, *cache.Entry) error) error {
	if len(p.digests) == 0 {
		return nil
	}
	res, err := p.Msearch(p.buf, p.Msearch.WithIndex(p.index))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.New(res.String())
	}

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	var esresponse esResponse
	if err := json.Unmarshal(b, &esresponse); err != nil {
		return err
	}
	if len(esresponse.Responses) != len(p.digests) {
		return fmt.Errorf("expected %d search responses, got %d", len(p.digests), len(esresponse.Responses))
	}

	for i, response := range esresponse.Responses {
		var entry *cache.Entry
		if len(response.Hits.Hits) > 0 {
			source := response.Hits.Hits[0].Source
			entry = &source
		}
		if err := onResult(p.digests[i], entry); err != nil {
			return err
		}
	}
	return nil
}

func (p *esPipeline) Size() int {
	return len(p.digests)
}
