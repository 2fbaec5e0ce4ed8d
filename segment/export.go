package segment

import (
	"slices"
	"strconv"
)

// DescriptorType is the @type of the property descriptor.
const DescriptorType = "neuroglancer_segment_properties"

// Export is the column-wise, tag-encoded view of an index.
type Export struct {
	IDs     []string
	Labels  []string
	Strains []string
	// TagValues holds, per row, the rank of the row's tag in Tags.
	TagValues       []int
	Tags            []string
	TagDescriptions []string
}

// Export encodes the current rows.
//
// Tags holds the distinct tags in byte-wise ascending order. Each row's tag is
// replaced by its rank in Tags. TagDescriptions[i] is the description of the
// first row carrying Tags[i].
func (x *Index) Export() *Export {
	n := len(x.rows)
	exp := &Export{
		IDs:       make([]string, n),
		Labels:    make([]string, n),
		Strains:   make([]string, n),
		TagValues: make([]int, n),
	}

	firstDesc := make(map[string]string)
	for i, e := range x.rows {
		exp.IDs[i] = strconv.FormatUint(e.ID, 10)
		exp.Labels[i] = e.Label
		exp.Strains[i] = e.Strain
		if _, ok := firstDesc[e.Tag]; !ok {
			firstDesc[e.Tag] = e.TagDescription
			exp.Tags = append(exp.Tags, e.Tag)
		}
	}

	slices.Sort(exp.Tags)

	rank := make(map[string]int, len(exp.Tags))
	exp.TagDescriptions = make([]string, len(exp.Tags))
	for i, tag := range exp.Tags {
		rank[tag] = i
		exp.TagDescriptions[i] = firstDesc[tag]
	}

	for i, e := range x.rows {
		exp.TagValues[i] = rank[e.Tag]
	}

	if exp.Tags == nil {
		exp.Tags = []string{}
	}

	return exp
}

// Descriptor is the JSON document written next to the snapshot.
type Descriptor struct {
	Type   string `json:"@type"`
	Inline Inline `json:"inline"`
}

// Inline holds the inline property table of a Descriptor.
type Inline struct {
	IDs        []string   `json:"ids"`
	Properties []Property `json:"properties"`
}

// Property is one column. Values is []string for label and string columns and
// [][]int for the tags column.
type Property struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	Description     string   `json:"description,omitempty"`
	Values          any      `json:"values"`
	Tags            []string `json:"tags,omitempty"`
	TagDescriptions []string `json:"tag_descriptions,omitempty"`
}

// Descriptor builds the descriptor document of e.
func (e *Export) Descriptor() *Descriptor {
	tagValues := make([][]int, len(e.TagValues))
	for i, r := range e.TagValues {
		tagValues[i] = []int{r}
	}

	return &Descriptor{
		Type: DescriptorType,
		Inline: Inline{
			IDs: e.IDs,
			Properties: []Property{
				{ID: "label", Type: "label", Description: "filename", Values: e.Labels},
				{ID: "strain", Type: "string", Description: "mouse line used", Values: e.Strains},
				{ID: "tags", Type: "tags", Values: tagValues, Tags: e.Tags, TagDescriptions: e.TagDescriptions},
			},
		},
	}
}
