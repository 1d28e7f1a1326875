package models

// EventMetadata describes the event an annotation refers to.
type EventMetadata struct {
	Description string     `json:"description"`
	StartTime   *Timestamp `json:"startTime,omitempty"`
	StopTime    *Timestamp `json:"stopTime,omitempty"`
}

// Annotation references datasets and other annotations, and may carry
// calculation results as data frames.
type Annotation struct {
	ID                string            `json:"id,omitempty"`
	OwnerID           string            `json:"ownerId,omitempty"`
	Name              string            `json:"name"`
	Comment           string            `json:"comment,omitempty"`
	DataSetIDs        []string          `json:"dataSetIds"`
	AnnotationIDs     []string          `json:"annotationIds,omitempty"`
	Tags              []string          `json:"tags,omitempty"`
	Attributes        map[string]string `json:"attributes,omitempty"`
	Event             *EventMetadata    `json:"event,omitempty"`
	CalculationFrames []DataFrame       `json:"calculationFrames,omitempty"`
}

// AnnotationCriteria selects annotations. Nil fields are not constrained.
type AnnotationCriteria struct {
	ID                *string `json:"id,omitempty"`
	Owner             *string `json:"owner,omitempty"`
	RelatedDataSet    *string `json:"relatedDataSet,omitempty"`
	RelatedAnnotation *string `json:"relatedAnnotation,omitempty"`
	NameCommentEvent  *string `json:"nameCommentEvent,omitempty"`
	Tag               *string `json:"tag,omitempty"`
	AttributeKey      *string `json:"attributeKey,omitempty"`
	AttributeValue    *string `json:"attributeValue,omitempty"`
}

// IsEmpty reports whether no criterion is set.
func (c AnnotationCriteria) IsEmpty() bool {
	return allNil(c.ID, c.Owner, c.RelatedDataSet, c.RelatedAnnotation,
		c.NameCommentEvent, c.Tag, c.AttributeKey, c.AttributeValue)
}
