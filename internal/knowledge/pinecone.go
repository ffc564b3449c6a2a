package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

const embeddingDimension = 1536

// PineconeIndex implements VectorIndex on a Pinecone serverless index.
type PineconeIndex struct {
	client    *pinecone.Client
	indexName string
	namespace string
}

func NewPineconeIndex(ctx context.Context, apiKey, indexName, namespace string) (*PineconeIndex, error) {
	pc, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create pinecone client: %w", err)
	}

	p := &PineconeIndex{client: pc, indexName: indexName, namespace: namespace}
	if err := p.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PineconeIndex) ensureIndex(ctx context.Context) error {
	indexes, err := p.client.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("list indexes: %w", err)
	}
	for _, idx := range indexes {
		if idx.Name == p.indexName {
			return nil
		}
	}

	dimension := int32(embeddingDimension)
	metric := pinecone.Cosine
	deletionProtection := pinecone.DeletionProtectionDisabled

	_, err = p.client.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:               p.indexName,
		Dimension:          &dimension,
		Metric:             &metric,
		Cloud:              pinecone.Aws,
		Region:             "us-east-1",
		DeletionProtection: &deletionProtection,
	})
	if err != nil {
		return fmt.Errorf("create index %s: %w", p.indexName, err)
	}
	return nil
}

func (p *PineconeIndex) connect(ctx context.Context) (*pinecone.IndexConnection, error) {
	idxDesc, err := p.client.DescribeIndex(ctx, p.indexName)
	if err != nil {
		return nil, fmt.Errorf("describe index: %w", err)
	}
	conn, err := p.client.Index(pinecone.NewIndexConnParams{
		Host:      idxDesc.Host,
		Namespace: p.namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("connect index: %w", err)
	}
	return conn, nil
}

func (p *PineconeIndex) Upsert(ctx context.Context, vectors []Vector) error {
	conn, err := p.connect(ctx)
	if err != nil {
		return err
	}

	pcVectors := make([]*pinecone.Vector, 0, len(vectors))
	for _, v := range vectors {
		meta, err := structpb.NewStruct(metadataMap(v.Metadata))
		if err != nil {
			return fmt.Errorf("metadata for %s: %w", v.ID, err)
		}
		values := v.Values
		pcVectors = append(pcVectors, &pinecone.Vector{
			Id:       v.ID,
			Values:   &values,
			Metadata: meta,
		})
	}

	if _, err := conn.UpsertVectors(ctx, pcVectors); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

func (p *PineconeIndex) Query(ctx context.Context, vector []float32, k int, filter Metadata) ([]Hit, error) {
	conn, err := p.connect(ctx)
	if err != nil {
		return nil, err
	}

	req := &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(k),
		IncludeValues:   false,
		IncludeMetadata: true,
	}
	if len(filter) > 0 {
		mf, err := structpb.NewStruct(metadataMap(filter))
		if err != nil {
			return nil, fmt.Errorf("metadata filter: %w", err)
		}
		req.MetadataFilter = mf
	}

	result, err := conn.QueryByVectorValues(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	hits := make([]Hit, 0, len(result.Matches))
	for _, match := range result.Matches {
		if match.Vector == nil {
			continue
		}
		hit := Hit{ID: match.Vector.Id, Score: match.Score}
		if match.Vector.Metadata != nil {
			hit.Metadata = Metadata(match.Vector.Metadata.AsMap())
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (p *PineconeIndex) DeleteByPrefix(ctx context.Context, prefix string) error {
	conn, err := p.connect(ctx)
	if err != nil {
		return err
	}

	limit := uint32(100)
	for {
		listResp, err := conn.ListVectors(ctx, &pinecone.ListVectorsRequest{
			Prefix: &prefix,
			Limit:  &limit,
		})
		if err != nil {
			// A missing namespace simply means nothing to delete yet.
			if strings.Contains(err.Error(), "Namespace not found") {
				return nil
			}
			return fmt.Errorf("list vectors: %w", err)
		}
		if len(listResp.VectorIds) == 0 {
			return nil
		}

		ids := make([]string, 0, len(listResp.VectorIds))
		for _, id := range listResp.VectorIds {
			if id != nil {
				ids = append(ids, *id)
			}
		}
		if err := conn.DeleteVectorsById(ctx, ids); err != nil {
			return fmt.Errorf("delete vectors: %w", err)
		}
		if listResp.NextPaginationToken == nil {
			return nil
		}
	}
}

// metadataMap converts Metadata into the plain map structpb accepts;
// []string becomes []any.
func metadataMap(meta Metadata) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		if list, ok := v.([]string); ok {
			items := make([]any, len(list))
			for i, s := range list {
				items[i] = s
			}
			out[k] = items
			continue
		}
		out[k] = v
	}
	return out
}
