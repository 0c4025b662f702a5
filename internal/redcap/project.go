package redcap

import (
	"context"
	"net/url"
)

// Version returns the REDCap server version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	return c.callText(ctx, "version", nil)
}

// ProjectInfo exports basic project attributes such as title,
// longitudinality, whether surveys are enabled, and creation time.
func (c *Client) ProjectInfo(ctx context.Context) (Record, error) {
	var info Record
	if err := c.callJSON(ctx, "project", nil, &info); err != nil {
		return nil, err
	}
	return info, nil
}

// SetProjectInfo imports basic project attributes.
func (c *Client) SetProjectInfo(ctx context.Context, info Record) error {
	data, err := jsonParam(info)
	if err != nil {
		return err
	}
	params := url.Values{}
	params.Set("data", data)

	_, err = c.call(ctx, "project_settings", params)
	return err
}

// ProjectXMLOptions controls what the CDISC ODM export includes.
type ProjectXMLOptions struct {
	MetadataOnly            bool
	IncludeDataAccessGroups bool
	IncludeSurveyFields     bool
	IncludeFiles            bool
}

// ProjectXML fetches the entire project as a CDISC ODM XML document.
func (c *Client) ProjectXML(ctx context.Context, opts ProjectXMLOptions) (string, error) {
	params := url.Values{}
	params.Set("returnMetadataOnly", boolParam(opts.MetadataOnly))
	params.Set("exportDataAccessGroups", boolParam(opts.IncludeDataAccessGroups))
	params.Set("exportSurveyFields", boolParam(opts.IncludeSurveyFields))
	params.Set("exportFiles", boolParam(opts.IncludeFiles))

	return c.callText(ctx, "project_xml", params)
}

// Users lists project users with privileges, email addresses, and names.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.callJSON(ctx, "user", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetUsers adds or updates project users and returns the number affected.
func (c *Client) SetUsers(ctx context.Context, users []User) (int, error) {
	data, err := jsonParam(users)
	if err != nil {
		return 0, err
	}
	params := url.Values{}
	params.Set("data", data)

	var count int
	if err := c.callJSON(ctx, "user", params, &count); err != nil {
		return 0, err
	}
	return count, nil
}
