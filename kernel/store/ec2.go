package store

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
	"github.com/openziti/rbrowse/kernel/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	ec2MinResults = model.MinEC2PageSize
	ec2MaxResults = 1000
)

// EC2Lister lists ec2_instance resources with DescribeInstances. Search and
// label equality clauses become tag filters. Next tokens are passed through
// as start keys. EC2 does not report a total, so TotalCount is zero.
type EC2Lister struct {
	api ec2iface.EC2API
	log logrus.FieldLogger
}

func NewEC2Lister(api ec2iface.EC2API) *EC2Lister {
	return &EC2Lister{api: api, log: logrus.WithField("component", "ec2")}
}

// NewEC2ListerForRegion builds a lister from the default credential chain.
func NewEC2ListerForRegion(region string) (*EC2Lister, error) {
	cfg := aws.NewConfig()
	if region != "" {
		cfg = cfg.WithRegion(region)
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *cfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating aws session")
	}
	return NewEC2Lister(ec2.New(sess)), nil
}

func (l *EC2Lister) List(ctx context.Context, clusterId string, kind model.ResourceKind, req model.FetchRequest) (*model.FetchResponse, error) {
	if kind != model.KindEC2Instance {
		return nil, model.UnsupportedKind(kind)
	}
	filters, err := ec2Filters(req)
	if err != nil {
		return nil, err
	}
	input := &ec2.DescribeInstancesInput{
		Filters:    filters,
		MaxResults: aws.Int64(clampResults(req.Limit)),
	}
	if req.StartKey != "" {
		input.NextToken = aws.String(req.StartKey)
	}
	l.log.WithField("cluster", clusterId).WithField("filters", len(filters)).Debug("describing instances")

	out, err := l.api.DescribeInstancesWithContext(ctx, input)
	if err != nil {
		return nil, errors.Wrap(err, "describing ec2 instances")
	}
	resp := &model.FetchResponse{StartKey: aws.StringValue(out.NextToken)}
	for _, reservation := range out.Reservations {
		for _, instance := range reservation.Instances {
			resp.Items = append(resp.Items, instanceResource(instance))
		}
	}
	return resp, nil
}

func clampResults(limit int) int64 {
	switch {
	case limit < ec2MinResults:
		return ec2MinResults
	case limit > ec2MaxResults:
		return ec2MaxResults
	}
	return int64(limit)
}

// ec2Filters translates the request into DescribeInstances filters. Only
// conjunctions of search() and labels["k"] == "v" clauses can be expressed.
func ec2Filters(req model.FetchRequest) ([]*ec2.Filter, error) {
	var filters []*ec2.Filter
	for _, term := range strings.Fields(req.Search) {
		filters = append(filters, tagFilter("Name", "*"+term+"*"))
	}
	if strings.TrimSpace(req.Query) == "" {
		return filters, nil
	}
	tokens, err := tokenize(req.Query)
	if err != nil {
		return nil, errors.Wrapf(ErrBadQuery, "%v", err)
	}
	unsupported := errors.Wrapf(ErrBadQuery, "ec2 supports only search() and label equality joined by &&: %s", req.Query)
	for i := 0; i < len(tokens); {
		rest := tokens[i:]
		switch {
		case matches(rest, tokIdent, "labels", tokOp, "[", tokString, "", tokOp, "]", tokOp, "==", tokString, ""):
			filters = append(filters, tagFilter(rest[2].text, rest[5].text))
			i += 6
		case matches(rest, tokIdent, "search", tokOp, "(", tokString, "", tokOp, ")"):
			for _, term := range strings.Fields(rest[2].text) {
				filters = append(filters, tagFilter("Name", "*"+term+"*"))
			}
			i += 4
		default:
			return nil, unsupported
		}
		if i < len(tokens) {
			if tokens[i].kind != tokOp || tokens[i].text != "&&" || i+1 == len(tokens) {
				return nil, unsupported
			}
			i++
		}
	}
	return filters, nil
}

// matches checks tokens against (kind, text) pairs; an empty text matches any.
func matches(tokens []token, pattern ...interface{}) bool {
	if len(tokens) < len(pattern)/2 {
		return false
	}
	for i := 0; i < len(pattern); i += 2 {
		t := tokens[i/2]
		if t.kind != pattern[i].(tokenKind) {
			return false
		}
		if text := pattern[i+1].(string); text != "" && t.text != text {
			return false
		}
	}
	return true
}

func tagFilter(key, value string) *ec2.Filter {
	return &ec2.Filter{Name: aws.String("tag:" + key), Values: []*string{aws.String(value)}}
}

func instanceResource(instance *ec2.Instance) model.Resource {
	id := aws.StringValue(instance.InstanceId)
	r := model.Resource{
		Id:   id,
		Kind: model.KindEC2Instance,
		Name: id,
		Attrs: map[string]string{
			"instance_type": aws.StringValue(instance.InstanceType),
			"private_ip":    aws.StringValue(instance.PrivateIpAddress),
		},
	}
	if instance.State != nil {
		r.Attrs["state"] = aws.StringValue(instance.State.Name)
	}
	if instance.Placement != nil {
		r.Attrs["availability_zone"] = aws.StringValue(instance.Placement.AvailabilityZone)
	}
	if instance.LaunchTime != nil {
		r.Attrs["launch_time"] = instance.LaunchTime.UTC().Format(time.RFC3339)
	}
	if len(instance.Tags) > 0 {
		r.Labels = make(map[string]string, len(instance.Tags))
		for _, tag := range instance.Tags {
			key := aws.StringValue(tag.Key)
			r.Labels[key] = aws.StringValue(tag.Value)
			if key == "Name" && aws.StringValue(tag.Value) != "" {
				r.Name = aws.StringValue(tag.Value)
			}
		}
	}
	return r
}
