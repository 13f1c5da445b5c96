package recommend

type Certification struct {
	Name     string
	Keywords []string
	URL      string
}

var DefaultCatalogue = []Certification{
	{Name: "AWS Certified Solutions Architect", Keywords: []string{"aws certified", "solutions architect", "aws certification"}, URL: "https://aws.amazon.com/certification/"},
	{Name: "Google Cloud Professional Data Engineer", Keywords: []string{"professional data engineer", "google cloud certified", "gcp certification"}, URL: "https://cloud.google.com/learn/certification/data-engineer"},
	{Name: "Microsoft Azure Fundamentals (AZ-900)", Keywords: []string{"az-900", "azure fundamentals", "azure certification"}, URL: "https://learn.microsoft.com/credentials/certifications/azure-fundamentals/"},
	{Name: "Certified Kubernetes Administrator", Keywords: []string{"cka", "certified kubernetes"}, URL: "https://www.cncf.io/training/certification/cka/"},
	{Name: "Project Management Professional (PMP)", Keywords: []string{"pmp", "project management professional"}, URL: "https://www.pmi.org/certifications/project-management-pmp"},
	{Name: "Certified ScrumMaster", Keywords: []string{"csm", "scrum master", "scrummaster"}, URL: "https://www.scrumalliance.org/get-certified"},
	{Name: "CompTIA Security+", Keywords: []string{"security+", "comptia"}, URL: "https://www.comptia.org/certifications/security"},
	{Name: "CISSP", Keywords: []string{"cissp"}, URL: "https://www.isc2.org/certifications/cissp"},
	{Name: "Google Data Analytics Certificate", Keywords: []string{"google data analytics"}, URL: "https://grow.google/certificates/data-analytics/"},
	{Name: "TensorFlow Developer Certificate", Keywords: []string{"tensorflow developer", "tensorflow certificate"}, URL: "https://www.tensorflow.org/certificate"},
}
