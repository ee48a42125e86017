package github

// Profile is the subset of the GitHub user object we care about.
type Profile struct {
	Login       string  `json:"login"`
	PublicRepos int     `json:"public_repos"`
	Followers   int     `json:"followers"`
	Following   int     `json:"following"`
	CreatedAt   string  `json:"created_at"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	Company     *string `json:"company"`
}

// Repo is a repository as returned by the GitHub API.
type Repo struct {
	Name          string  `json:"name"`
	FullName      string  `json:"full_name"`
	Language      *string `json:"language"`
	Stars         int     `json:"stargazers_count"`
	Forks         int     `json:"forks_count"`
	UpdatedAt     string  `json:"updated_at"`
	Description   *string `json:"description"`
	DefaultBranch string  `json:"default_branch"`
}

// SignalProfile is the normalized profile summary fed to the LLM.
type SignalProfile struct {
	PublicRepos int     `json:"public_repos"`
	Followers   int     `json:"followers"`
	CreatedAt   string  `json:"created_at"`
	Bio         *string `json:"bio,omitempty"`
	Location    *string `json:"location,omitempty"`
	Company     *string `json:"company,omitempty"`
}

// RepoSummary is a normalized top repository.
type RepoSummary struct {
	Name          string  `json:"name"`
	Language      *string `json:"language"`
	Stars         int     `json:"stars"`
	Forks         int     `json:"forks"`
	UpdatedAt     string  `json:"updated_at"`
	Description   *string `json:"description,omitempty"`
	ReadmeSnippet *string `json:"readme_snippet,omitempty"`
}

// Signals is the full normalized summary of a GitHub profile.
type Signals struct {
	Profile  SignalProfile `json:"profile"`
	TopRepos []RepoSummary `json:"top_repos"`
}
