package domain

// Department is a normalized department record with the job posts
// reconciled for it.
type Department struct {
	Record
	JobPosts []Record // full posting records, in department-filtered order
}
